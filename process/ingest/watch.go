package ingest

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	pollInterval = 250 * time.Millisecond
	settleAfter  = 300 * time.Millisecond
)

// Watch ingests files that appear in dir until ctx is cancelled. A file is picked up once
// no create or write event has touched it for settleAfter; files that settle together
// form one pass.
func (r *Runner) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !IsReceiptFile(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			var ready []string
			for name, t := range pending {
				if now.Sub(t) > settleAfter {
					ready = append(ready, name)
					delete(pending, name)
				}
			}
			if len(ready) == 0 {
				continue
			}
			sort.Strings(ready)
			sum, err := r.Run(ctx, dir, ready)
			if err != nil {
				log.Printf("watch pass failed: %v", err)
				continue
			}
			log.Printf("Pass done: files=%d ok=%d duplicates=%d failed=%d", sum.Files, sum.OK, sum.Duplicates, sum.Failed)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}
