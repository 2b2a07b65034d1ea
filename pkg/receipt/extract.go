package receipt

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Extractor parses OCR text into Fields. The zero value is not usable; use NewExtractor.
type Extractor struct {
	classifier *Classifier
	currency   string
	now        func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock supplying the default date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithCurrency overrides the currency code stamped on every result.
func WithCurrency(code string) Option {
	return func(e *Extractor) {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			e.currency = code
		}
	}
}

// WithClassifier replaces the built-in keyword table.
func WithClassifier(c *Classifier) Option {
	return func(e *Extractor) {
		if c != nil {
			e.classifier = c
		}
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		classifier: DefaultClassifier(),
		currency:   DefaultCurrency,
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract never fails. Empty text yields a fully defaulted record.
func (e *Extractor) Extract(text string) Fields {
	f := Fields{
		Merchant: UnknownMerchant,
		Date:     e.Today(),
		Amount:   decimal.Zero,
		Currency: e.currency,
		Category: Other,
	}
	if amt, ok := BestAmount(text); ok {
		f.Amount = amt
	}
	if tok, ok := FindDateToken(text); ok {
		if d, err := NormalizeDate(tok); err == nil {
			f.Date = d
		}
	}
	if m, ok := FindMerchant(text); ok {
		f.Merchant = m
	}
	f.Category = e.classifier.Classify(strings.ToLower(text))
	return f
}

// Today is the processing date in YYYY-MM-DD form according to the extractor's clock.
func (e *Extractor) Today() string {
	return e.now().Format(DateLayout)
}

// FindMerchant returns the first trimmed line longer than three characters that holds no
// digit. Shop names head the receipt; address, phone and bill-number lines carry digits.
func FindMerchant(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if utf8.RuneCountInString(clean) <= 3 {
			continue
		}
		if strings.IndexFunc(clean, unicode.IsDigit) >= 0 {
			continue
		}
		return clean, true
	}
	return "", false
}
