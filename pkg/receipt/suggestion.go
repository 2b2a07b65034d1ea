package receipt

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Suggestion holds values proposed by an external cleanup step. Empty members mean the
// step had no opinion.
type Suggestion struct {
	Merchant string
	Date     string
	Amount   *decimal.Decimal
	Category string
}

// Merge overlays the valid parts of s onto f. Invalid suggestions (malformed dates,
// negative amounts, labels outside Categories) are ignored so f stays complete.
func Merge(f Fields, s Suggestion) Fields {
	if m := strings.TrimSpace(s.Merchant); m != "" {
		f.Merchant = m
	}
	if d := strings.TrimSpace(s.Date); d != "" {
		if _, err := time.Parse(DateLayout, d); err == nil {
			f.Date = d
		}
	}
	if s.Amount != nil && !s.Amount.IsNegative() {
		f.Amount = *s.Amount
	}
	if c, ok := ParseCategory(s.Category); ok {
		f.Category = c
	}
	return f
}

// ParseCategory matches name case-insensitively against the built-in labels.
func ParseCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}
