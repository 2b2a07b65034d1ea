// Package ingest scans a directory of receipt images, runs them through the pipeline in
// parallel and writes one JSON line per receipt. Fingerprints of receipts not flagged as
// duplicates go to a ledger so later passes flag resubmissions.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/history"
	"receiptscan/pkg/pipeline"
)

// Recorder stores the fingerprint of an accepted receipt and returns its id.
type Recorder interface {
	Record(ctx context.Context, owner int64, hash fingerprint.Fingerprint, name string) (int64, error)
}

// Runner holds everything one pass needs. History and Ledger may be nil.
type Runner struct {
	Pipeline *pipeline.Pipeline
	History  history.Source
	Ledger   Recorder
	Owner    int64
	Workers  int
	Out      io.Writer
	// ProcessedDir, when set, receives files after a successful pass so they are
	// ingested once.
	ProcessedDir string
	Verbose      bool
}

// Summary counts the outcomes of one pass.
type Summary struct {
	Files      int
	OK         int
	Duplicates int
	Failed     int
}

type line struct {
	File     string           `json:"file"`
	Receipt  *pipeline.Record `json:"receipt,omitempty"`
	LedgerID *int64           `json:"ledger_id,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (r *Runner) logV(format string, args ...any) {
	if r.Verbose {
		log.Printf(format, args...)
	}
}

// ListReceiptFiles returns the supported files directly under dir, sorted by name.
func ListReceiptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsReceiptFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// IsReceiptFile reports whether name has an image or PDF extension the decoder accepts.
func IsReceiptFile(name string) bool {
	// debug tools write *.ocr.png next to the source
	if strings.Contains(name, ".ocr.") || strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".heic", ".heif", ".pdf":
		return true
	}
	return false
}

// RunDir ingests every supported file in dir.
func (r *Runner) RunDir(ctx context.Context, dir string) (Summary, error) {
	names, err := ListReceiptFiles(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("list %s: %w", dir, err)
	}
	return r.Run(ctx, dir, names)
}

// Run ingests names (relative to dir) as one pass. History is loaded once up front, so
// two copies of the same image inside one pass are not compared with each other.
func (r *Runner) Run(ctx context.Context, dir string, names []string) (Summary, error) {
	sum := Summary{Files: len(names)}
	if len(names) == 0 {
		return sum, nil
	}
	var hist []fingerprint.HistoryEntry
	if r.History != nil {
		h, err := r.History.History(ctx, r.Owner)
		if err != nil {
			return sum, fmt.Errorf("load history: %w", err)
		}
		hist = h
	}

	items := make([]pipeline.Item, 0, len(names))
	var readFailed []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("WARN read %s: %v", name, err)
			readFailed = append(readFailed, name)
			continue
		}
		items = append(items, pipeline.Item{Name: name, Data: data})
	}
	log.Printf("Ingesting %d files (history=%d)", len(items), len(hist))

	enc := json.NewEncoder(r.Out)
	for _, name := range readFailed {
		sum.Failed++
		if err := enc.Encode(line{File: name, Error: "unreadable file"}); err != nil {
			return sum, err
		}
	}
	for _, res := range r.Pipeline.IngestBatch(ctx, items, hist, r.Workers) {
		out := line{File: res.Name}
		if res.Err != nil {
			sum.Failed++
			out.Error = res.Err.Error()
			r.logV("FAIL %s: %v", res.Name, res.Err)
		} else {
			rec := res.Record
			out.Receipt = &rec
			sum.OK++
			if rec.IsDuplicate {
				sum.Duplicates++
				log.Printf("DUPLICATE %s matches #%d", res.Name, *rec.MatchedID)
			}
			// duplicates already have an entry
			if r.Ledger != nil && !rec.IsDuplicate {
				id, err := r.Ledger.Record(ctx, r.Owner, rec.Fingerprint, res.Name)
				if err != nil {
					return sum, fmt.Errorf("ledger %s: %w", res.Name, err)
				}
				out.LedgerID = &id
			}
			r.logV("OK %s merchant=%q amount=%s", res.Name, rec.Merchant, rec.Amount.StringFixed(2))
			if r.ProcessedDir != "" {
				if err := moveToProcessed(filepath.Join(dir, res.Name), r.ProcessedDir); err != nil {
					log.Printf("WARN failed to move processed file %s: %v", res.Name, err)
				}
			}
		}
		if err := enc.Encode(out); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// moveToProcessed renames src into dir, falling back to copy and remove across devices.
func moveToProcessed(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
