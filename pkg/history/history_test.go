package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"receiptscan/pkg/fingerprint"
)

func TestGormSourceHistory(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	rows := sqlmock.NewRows([]string{"image_hash", "id"}).
		AddRow("c3c3a5a55a5a3c3c", int64(4)).
		AddRow(nil, int64(6))
	mock.ExpectQuery(`FROM "expenses"`).
		WithArgs("scanned", int64(7)).
		WillReturnRows(rows)

	got, err := NewGormSource(db).History(context.Background(), 7)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := []fingerprint.HistoryEntry{{Hash: "c3c3a5a55a5a3c3c", ID: 4}, {Hash: "", ID: 6}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("History() = %+v want %+v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGormSourceRequiresOwner(t *testing.T) {
	if _, err := NewGormSource(nil).History(context.Background(), 0); !errors.Is(err, ErrNoOwner) {
		t.Fatalf("expected ErrNoOwner, got %v", err)
	}
}

func openMemorySQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// every new connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func TestSQLSourceScopesToOwnerAndScannedRows(t *testing.T) {
	db := openMemorySQLite(t)
	inserts := []struct {
		user   int64
		source string
		hash   any
	}{
		{1, "scanned", "00000000000000ff"},
		{2, "scanned", "ffffffffffffffff"},
		{1, "manual", nil},
		{1, "scanned", nil},
		{1, "scanned", "0f0f0f0f0f0f0f0f"},
	}
	for _, in := range inserts {
		if _, err := db.Exec(`INSERT INTO expenses (user_id, source, image_hash, merchant, amount) VALUES (?, ?, ?, 'x', 1)`,
			in.user, in.source, in.hash); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := NewSQLSource(db).History(context.Background(), 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := []fingerprint.HistoryEntry{
		{Hash: "00000000000000ff", ID: 1},
		{Hash: "", ID: 4},
		{Hash: "0f0f0f0f0f0f0f0f", ID: 5},
	}
	if len(got) != len(want) {
		t.Fatalf("History() = %+v want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v want %+v", i, got[i], want[i])
		}
	}

	none, err := NewSQLSource(db).History(context.Background(), 99)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown owner: %+v %v", none, err)
	}
}

func TestLedgerRecordAndHistory(t *testing.T) {
	l, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	a, b := fingerprint.Fingerprint(0xff), fingerprint.Fingerprint(0xf0f0)
	id1, err := l.Record(ctx, 3, a, "a.jpg")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	id2, err := l.Record(ctx, 3, b, "b.jpg")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := l.Record(ctx, 8, b, "other.jpg"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Fatalf("ids = %d, %d", id1, id2)
	}

	h, err := l.History(ctx, 3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(h) != 2 || h[0].Hash != a.String() || h[1].ID != 2 {
		t.Fatalf("History() = %+v", h)
	}
	v := fingerprint.Detect(b, h)
	if !v.IsDuplicate || *v.MatchedID != 2 {
		t.Fatalf("ledger history should flag b.jpg again: %+v", v)
	}

	empty, err := l.History(ctx, 42)
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown owner: %+v %v", empty, err)
	}
	if _, err := l.Record(ctx, 0, a, "x"); !errors.Is(err, ErrNoOwner) {
		t.Fatalf("expected ErrNoOwner, got %v", err)
	}
}

func TestMultiConcatenatesInOrder(t *testing.T) {
	l, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	defer l.Close()
	ctx := context.Background()
	if _, err := l.Record(ctx, 1, fingerprint.Fingerprint(0xabc), "l.jpg"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	db := openMemorySQLite(t)
	if _, err := db.Exec(`INSERT INTO expenses (user_id, source, image_hash) VALUES (1, 'scanned', '0000000000000abc')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h, err := Multi{NewSQLSource(db), l}.History(ctx, 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(h) != 2 || h[0].Hash != "0000000000000abc" || h[1].Hash != "0000000000000abc" {
		t.Fatalf("History() = %+v", h)
	}
	if _, err := (Multi{l}).History(ctx, -1); !errors.Is(err, ErrNoOwner) {
		t.Fatalf("expected ErrNoOwner, got %v", err)
	}
}
