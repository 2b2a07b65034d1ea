package receipt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountRE matches a monetary number: thousands-grouped (1,250.00), lakh-grouped
// (1,20,000.00) or plain digits followed by exactly two decimals. Currency symbols in
// front are irrelevant to the capture. Tokens without the two-digit fraction (quantities,
// phone fragments) never match.
var amountRE = regexp.MustCompile(`(?:\d{1,3}(?:,\d{3})+|\d{1,2}(?:,\d{2})+,\d{3}|\d+)\.\d{2}`)

// FindAmounts returns every monetary token in text, in document order.
func FindAmounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, line := range strings.Split(text, "\n") {
		for _, loc := range amountRE.FindAllStringIndex(line, -1) {
			if !isolated(line, loc[0], loc[1]) {
				continue
			}
			v, err := ParseAmount(line[loc[0]:loc[1]])
			if err != nil {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// BestAmount returns the largest monetary token. Receipts list line items before the
// total, and the total is the largest figure in the common case.
func BestAmount(text string) (decimal.Decimal, bool) {
	amounts := FindAmounts(text)
	if len(amounts) == 0 {
		return decimal.Zero, false
	}
	return decimal.Max(amounts[0], amounts[1:]...), true
}

// ParseAmount strips grouping separators from a matched token and parses it.
func ParseAmount(token string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount token")
	}
	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", token, err)
	}
	return v.Abs(), nil
}

// isolated rejects matches that are fragments of a longer number such as 12.345 or
// 1.234.56.
func isolated(s string, start, end int) bool {
	if start > 0 {
		p := s[start-1]
		if isDigit(p) {
			return false
		}
		if (p == ',' || p == '.') && start > 1 && isDigit(s[start-2]) {
			return false
		}
	}
	if end < len(s) {
		n := s[end]
		if isDigit(n) {
			return false
		}
		if (n == ',' || n == '.') && end+1 < len(s) && isDigit(s[end+1]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
