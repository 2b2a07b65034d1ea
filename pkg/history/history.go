// Package history loads the fingerprints an owner has already submitted, in the shape
// fingerprint.Detect expects. Sources only read; the pipeline never writes through them.
package history

import (
	"context"
	"errors"

	"receiptscan/pkg/fingerprint"
)

// ErrNoOwner is returned when a lookup is not scoped to an owner.
var ErrNoOwner = errors.New("history: owner is required")

// Source returns one owner's scanned-receipt fingerprints ordered by id. Entries with an
// empty hash are passed through; Detect skips them.
type Source interface {
	History(ctx context.Context, owner int64) ([]fingerprint.HistoryEntry, error)
}

// Multi concatenates several sources in order. Detect reports the first match, so the
// earlier source wins when two of them hold the same image.
type Multi []Source

func (m Multi) History(ctx context.Context, owner int64) ([]fingerprint.HistoryEntry, error) {
	if owner <= 0 {
		return nil, ErrNoOwner
	}
	var out []fingerprint.HistoryEntry
	for _, s := range m {
		entries, err := s.History(ctx, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}
