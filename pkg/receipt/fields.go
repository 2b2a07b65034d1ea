// Package receipt turns OCR text into structured receipt fields using ordered heuristics.
// Extraction never fails: each field that cannot be recovered gets a documented default.
package receipt

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Category is a spending label.
type Category string

const (
	Food      Category = "Food"
	Travel    Category = "Travel"
	Shopping  Category = "Shopping"
	Utilities Category = "Utilities"
	Medical   Category = "Medical"
	Salary    Category = "Salary"
	Groceries Category = "Groceries"
	Other     Category = "Other"
)

// Defaults substituted when extraction finds nothing.
const (
	UnknownMerchant = "Unknown Merchant"
	DefaultCurrency = "INR"
	DateLayout      = "2006-01-02"
)

// Categories lists the built-in labels.
var Categories = []Category{Food, Travel, Shopping, Utilities, Medical, Salary, Groceries, Other}

// Fields is the structured result of one extraction. Every member is always set.
type Fields struct {
	Merchant string          `json:"merchant"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Category Category        `json:"category"`
}

// MarshalJSON writes Amount as a JSON number with two decimals.
func (f Fields) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Merchant string      `json:"merchant"`
		Date     string      `json:"date"`
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
		Category Category    `json:"category"`
	}{f.Merchant, f.Date, json.Number(f.Amount.StringFixed(2)), f.Currency, f.Category})
}
