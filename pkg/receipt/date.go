package receipt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDate is returned when neither day-month order yields a real calendar date.
var ErrInvalidDate = errors.New("invalid date")

// dateRE matches 1-2 digit day and month fields and a 4 or 2 digit year, separated by
// '/' or '-'.
var dateRE = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})`)

// FindDateToken returns the first date-shaped token in document order.
func FindDateToken(text string) (string, bool) {
	for _, loc := range dateRE.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		return text[loc[0]:loc[1]], true
	}
	return "", false
}

// NormalizeDate rewrites a numeric date token as YYYY-MM-DD. The first field is read as
// the day (DD-MM-YYYY receipts); when that is impossible the month-first reading is tried
// as a best effort. Two-digit years fall in 2000-2099.
func NormalizeDate(token string) (string, error) {
	m := dateRE.FindStringSubmatch(token)
	if m == nil || m[0] != token {
		return "", fmt.Errorf("%w: %q is not a numeric date", ErrInvalidDate, token)
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if d, ok := calendarDate(year, second, first); ok {
		return d.Format(DateLayout), nil
	}
	if d, ok := calendarDate(year, first, second); ok {
		return d.Format(DateLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, token)
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow such as 31 February into March
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
