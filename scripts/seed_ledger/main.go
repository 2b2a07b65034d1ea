package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/history"
	"receiptscan/process/ingest"
)

// Backfills the ledger with fingerprints of receipts that were filed before scanning
// started, so their resubmission is flagged too.
func main() {
	dir := flag.String("dir", "receipts/archive", "directory tree of already accepted receipts")
	ledgerPath := flag.String("ledger", "receiptscan.ledger", "ledger file")
	owner := flag.Int64("owner", 1, "owner the receipts belong to")
	dry := flag.Bool("dry-run", true, "dry-run: only print fingerprints")
	flag.Parse()

	var ledger *history.Ledger
	if !*dry {
		l, err := history.OpenLedger(*ledgerPath)
		if err != nil {
			log.Fatalf("open ledger: %v", err)
		}
		defer l.Close()
		ledger = l
	}
	ctx := context.Background()

	var seeded, skipped int
	err := filepath.WalkDir(*dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ingest.IsReceiptFile(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fp, err := fingerprint.ComputeBytes(data)
		if err != nil {
			log.Printf("SKIP %s: %v", path, err)
			skipped++
			return nil
		}
		if ledger == nil {
			log.Printf("DRY %s image_hash=%s", path, fp)
			seeded++
			return nil
		}
		id, err := ledger.Record(ctx, *owner, fp, filepath.ToSlash(path))
		if err != nil {
			return err
		}
		log.Printf("SEEDED #%d %s image_hash=%s", id, path, fp)
		seeded++
		return nil
	})
	if err != nil {
		log.Fatalf("walk: %v", err)
	}
	log.Printf("done: seeded=%d skipped=%d dry_run=%v", seeded, skipped, *dry)
}
