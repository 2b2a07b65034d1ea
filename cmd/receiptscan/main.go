// Command receiptscan extracts expense fields from receipt images and flags resubmitted
// receipts. It processes a single file, a directory, or watches a directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/history"
	"receiptscan/pkg/ocr"
	"receiptscan/pkg/pipeline"
	"receiptscan/pkg/receipt"
	"receiptscan/pkg/refine"
	"receiptscan/process/ingest"
)

func main() {
	loadDotEnv(".env")

	fs := ff.NewFlagSet("receiptscan")
	var (
		dir          = fs.StringLong("dir", "receipts", "directory of receipt images")
		file         = fs.StringLong("file", "", "process a single receipt and exit")
		watch        = fs.BoolLong("watch", "keep watching --dir for new receipts")
		workers      = fs.IntLong("workers", 0, "parallel receipts (default NumCPU)")
		owner        = fs.IntLong("owner", 1, "user id whose history is checked for duplicates")
		tessdata     = fs.StringLong("tessdata", "", "tessdata directory (default engine lookup)")
		lang         = fs.StringLong("lang", "eng", "tesseract languages, e.g. eng+hin")
		keywords     = fs.StringLong("keywords", "", "YAML category keyword table (default built-in)")
		currency     = fs.StringLong("currency", receipt.DefaultCurrency, "currency code reported with every amount")
		ledgerPath   = fs.StringLong("ledger", "receiptscan.ledger", "local fingerprint ledger file, empty to disable")
		pgDSN        = fs.StringLong("pg-dsn", "", "expense tracker Postgres DSN used as extra history")
		pgMigrate    = fs.BoolLong("pg-migrate", "create or update the expenses table in Postgres")
		sqlitePath   = fs.StringLong("sqlite", "", "expense tracker SQLite file used as extra history")
		geminiKey    = fs.StringLong("gemini-key", "", "Gemini API key; enables model cleanup of extracted fields")
		geminiModel  = fs.StringLong("gemini-model", refine.DefaultGeminiModel, "Gemini model name")
		processedDir = fs.StringLong("processed-dir", "", "move ingested files here")
		metricsFile  = fs.StringLong("metrics-file", "", "write Prometheus metrics to this textfile on exit")
		verbose      = fs.BoolLong("verbose", "per-file and debug logging")
		_            = fs.StringLong("config", "", "config file (flag value per line)")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPTSCAN"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []receipt.Option{receipt.WithCurrency(*currency)}
	if *keywords != "" {
		rules, err := receipt.LoadRulesFile(*keywords)
		if err != nil {
			log.Fatalf("keywords: %v", err)
		}
		opts = append(opts, receipt.WithClassifier(receipt.NewClassifier(rules)))
	}

	var refiner pipeline.Refiner
	if key := firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")); key != "" {
		g, err := refine.NewGemini(ctx, key, *geminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer g.Close()
		refiner = refine.New(g, refine.Config{Logger: logger})
	}

	reg := prometheus.NewRegistry()
	p := pipeline.New(pipeline.Config{
		Engine:    ocr.NewTesseract(ocr.TesseractConfig{TessdataPrefix: *tessdata, Languages: strings.Split(*lang, "+")}),
		Extractor: receipt.NewExtractor(opts...),
		Refiner:   refiner,
		Logger:    logger,
		Metrics:   pipeline.NewMetrics(reg),
	})
	if *metricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
				log.Printf("WARN write metrics: %v", err)
			}
		}()
	}

	var sources history.Multi
	var ledger *history.Ledger
	if *pgDSN != "" {
		src, err := history.OpenPostgres(*pgDSN, *pgMigrate)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer src.Close()
		sources = append(sources, src)
	}
	if *sqlitePath != "" {
		src, err := history.OpenSQLite(*sqlitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer src.Close()
		sources = append(sources, src)
	}
	if *ledgerPath != "" {
		l, err := history.OpenLedger(*ledgerPath)
		if err != nil {
			log.Fatalf("ledger: %v", err)
		}
		defer l.Close()
		ledger = l
		sources = append(sources, l)
	}

	runner := &ingest.Runner{
		Pipeline:     p,
		Owner:        int64(*owner),
		Workers:      *workers,
		Out:          os.Stdout,
		ProcessedDir: *processedDir,
		Verbose:      *verbose,
	}
	if len(sources) > 0 {
		runner.History = sources
	}
	if ledger != nil {
		runner.Ledger = ledger
	}

	if *file != "" {
		if err := ingestOne(ctx, p, sources, ledger, int64(*owner), *file); err != nil {
			log.Printf("ERROR %s: %v", *file, err)
			stop()
			os.Exit(1)
		}
		return
	}

	sum, err := runner.RunDir(ctx, *dir)
	if err != nil {
		log.Fatalf("scan %s: %v", *dir, err)
	}
	log.Printf("Scanned %s: files=%d ok=%d duplicates=%d failed=%d", *dir, sum.Files, sum.OK, sum.Duplicates, sum.Failed)

	if *watch {
		if err := runner.Watch(ctx, *dir); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func ingestOne(ctx context.Context, p *pipeline.Pipeline, src history.Multi, ledger *history.Ledger, owner int64, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var hist []fingerprint.HistoryEntry
	if len(src) > 0 {
		if hist, err = src.History(ctx, owner); err != nil {
			return fmt.Errorf("load history: %w", err)
		}
	}
	rec, err := p.Ingest(ctx, data, hist)
	if err != nil {
		return err
	}
	if ledger != nil && !rec.IsDuplicate {
		if _, err := ledger.Record(ctx, owner, rec.Fingerprint, path); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
