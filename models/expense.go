package models

import "time"

// Expense sources. Only scanned rows carry an image fingerprint.
const (
	SourceManual  = "manual"
	SourceScanned = "scanned"
)

// Expense is one row of the expense tracker's ledger.
type Expense struct {
	ID         int64 `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     int64     `gorm:"index;not null"`
	Date       time.Time `gorm:"not null"`
	Merchant   string    `gorm:"size:255"`
	Amount     float64   `gorm:"not null"`
	Currency   string    `gorm:"size:8"`
	Category   string    `gorm:"size:64"`
	Source     string    `gorm:"size:16;index"`
	ImageHash  *string   `gorm:"size:64"` // perceptual hash, hex; nil for manual entries
	IsFlagged  bool      `gorm:"default:false"`
	FlagReason string    `gorm:"size:255"`
}
