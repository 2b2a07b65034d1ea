package history

import (
	"context"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"receiptscan/models"
	"receiptscan/pkg/fingerprint"
)

// GormSource reads the expense tracker's own database through gorm.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource { return &GormSource{db: db} }

// OpenPostgres connects to dsn. With migrate set the expenses table is created or
// altered; a failed migration is logged, not fatal, because the tracker may own the schema.
func OpenPostgres(dsn string, migrate bool) (*GormSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if migrate {
		if err := db.AutoMigrate(&models.Expense{}); err != nil {
			log.Printf("migration warning (expenses): %v", err)
		}
	}
	return &GormSource{db: db}, nil
}

type hashRow struct {
	ImageHash *string
	ID        int64
}

func (s *GormSource) History(ctx context.Context, owner int64) ([]fingerprint.HistoryEntry, error) {
	if owner <= 0 {
		return nil, ErrNoOwner
	}
	var rows []hashRow
	err := s.db.WithContext(ctx).
		Model(&models.Expense{}).
		Select("image_hash", "id").
		Where("source = ? AND user_id = ?", models.SourceScanned, owner).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history for user %d: %w", owner, err)
	}
	out := make([]fingerprint.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e := fingerprint.HistoryEntry{ID: r.ID}
		if r.ImageHash != nil {
			e.Hash = *r.ImageHash
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *GormSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
