package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"receiptscan/models"
	"receiptscan/pkg/fingerprint"
)

// expensesSchema is the tracker's SQLite layout; only the columns read here matter.
const expensesSchema = `CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER,
	date TEXT,
	merchant TEXT,
	amount REAL,
	currency TEXT,
	category TEXT,
	payment_mode TEXT,
	notes TEXT,
	source TEXT,
	image_hash TEXT,
	is_flagged INTEGER DEFAULT 0,
	flag_reason TEXT
)`

// SQLSource reads history with plain database/sql, for SQLite tracker databases.
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource { return &SQLSource{db: db} }

// OpenSQLite opens the tracker database at path, creating the expenses table if absent.
func OpenSQLite(path string) (*SQLSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLSource{db: db}, nil
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(expensesSchema); err != nil {
		return fmt.Errorf("create expenses table: %w", err)
	}
	return nil
}

func (s *SQLSource) History(ctx context.Context, owner int64) ([]fingerprint.HistoryEntry, error) {
	if owner <= 0 {
		return nil, ErrNoOwner
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_hash, id FROM expenses WHERE source = ? AND user_id = ? ORDER BY id`,
		models.SourceScanned, owner)
	if err != nil {
		return nil, fmt.Errorf("load history for user %d: %w", owner, err)
	}
	defer rows.Close()

	var out []fingerprint.HistoryEntry
	for rows.Next() {
		var (
			hash sql.NullString
			id   int64
		)
		if err := rows.Scan(&hash, &id); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, fingerprint.HistoryEntry{Hash: hash.String, ID: id})
	}
	return out, rows.Err()
}

func (s *SQLSource) Close() error { return s.db.Close() }
