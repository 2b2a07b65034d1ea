package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"receiptscan/pkg/fingerprint"
)

const ledgerBucket = "scans"

// LedgerEntry is what the ledger keeps per accepted receipt.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	ImageHash string    `json:"image_hash"`
	Name      string    `json:"name"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Ledger is a local bbolt file of fingerprints, for running without the tracker's
// database. Each owner has a nested bucket keyed by a big-endian sequence, so iteration
// order is insertion order.
type Ledger struct {
	db  *bbolt.DB
	now func() time.Time
}

func OpenLedger(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func ownerKey(owner int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(owner))
	return k
}

// Record appends a fingerprint for owner and returns its id, which is what later
// duplicate verdicts will report.
func (l *Ledger) Record(ctx context.Context, owner int64, hash fingerprint.Fingerprint, name string) (int64, error) {
	if owner <= 0 {
		return 0, ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var id int64
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket([]byte(ledgerBucket)).CreateBucketIfNotExists(ownerKey(owner))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)
		data, err := json.Marshal(LedgerEntry{ID: id, ImageHash: hash.String(), Name: name, ScannedAt: l.now().UTC()})
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return b.Put(ownerKey(id), data)
	})
	if err != nil {
		return 0, fmt.Errorf("record scan: %w", err)
	}
	return id, nil
}

// Entries lists owner's ledger in insertion order.
func (l *Ledger) Entries(ctx context.Context, owner int64) ([]LedgerEntry, error) {
	if owner <= 0 {
		return nil, ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []LedgerEntry
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket)).Bucket(ownerKey(owner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var e LedgerEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) History(ctx context.Context, owner int64) ([]fingerprint.HistoryEntry, error) {
	entries, err := l.Entries(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]fingerprint.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = fingerprint.HistoryEntry{Hash: e.ImageHash, ID: e.ID}
	}
	return out, nil
}

func (l *Ledger) Close() error { return l.db.Close() }
