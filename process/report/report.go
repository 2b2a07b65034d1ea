// Package report prints what the local ledger holds for one owner.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"receiptscan/pkg/history"
)

// Run writes a summary line for owner and, with list set, one pipe-separated row per
// ledger entry. since filters entries scanned before it; the zero time keeps all.
func Run(ctx context.Context, w io.Writer, l *history.Ledger, owner int64, since time.Time, list bool) (int, error) {
	entries, err := l.Entries(ctx, owner)
	if err != nil {
		return 0, err
	}
	var rows []history.LedgerEntry
	for _, e := range entries {
		if e.ScannedAt.Before(since) {
			continue
		}
		rows = append(rows, e)
	}
	fmt.Fprintf(w, "Ledger for owner=%d since=%s:\n", owner, sinceLabel(since))
	fmt.Fprintf(w, "  records=%d\n", len(rows))
	if list {
		for _, r := range rows {
			fmt.Fprintf(w, "%d|%s|%s|%s\n", r.ID, r.ImageHash, r.Name, r.ScannedAt.Format(time.RFC3339))
		}
	}
	return len(rows), nil
}

func sinceLabel(t time.Time) string {
	if t.IsZero() {
		return "all"
	}
	return t.Format("2006-01-02")
}
