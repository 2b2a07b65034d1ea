package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"receiptscan/pkg/fingerprint"
)

// Item is one receipt of a batch.
type Item struct {
	Name string
	Data []byte
}

// Result pairs an item with its outcome. Err is set instead of Record on fatal failure.
type Result struct {
	Name   string
	Record Record
	Err    error
}

// IngestBatch runs every item through Ingest with at most workers in flight (NumCPU when
// workers <= 0). All items are compared against the same history snapshot, which must
// not change until IngestBatch returns. Results keep the order of items; one item's
// failure does not stop the others.
func (p *Pipeline) IngestBatch(ctx context.Context, items []Item, history []fingerprint.HistoryEntry, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, it := range items {
		g.Go(func() error {
			rec, err := p.Ingest(gctx, it.Data, history)
			results[i] = Result{Name: it.Name, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
