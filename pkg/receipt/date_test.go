package receipt

import (
	"errors"
	"testing"
)

func TestNormalizeDateDayFirst(t *testing.T) {
	cases := map[string]string{
		"02/01/2026": "2026-01-02",
		"05-04-2026": "2026-04-05",
		"5/4/26":     "2026-04-05",
		"29/02/2024": "2024-02-29",
		// day-first impossible, month-first fallback
		"12/31/2025": "2025-12-31",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s got %s", in, want, got)
		}
	}
}

func TestNormalizeDateRejectsImpossible(t *testing.T) {
	for _, in := range []string{"31/02/2026", "00/13/2026", "29/02/2025", "45/45/2026", "hello"} {
		if _, err := NormalizeDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%s: expected ErrInvalidDate got %v", in, err)
		}
	}
}

func TestFindDateTokenFirstWins(t *testing.T) {
	tok, ok := FindDateToken("Bill Date: 02/01/2026\nDue Date: 15/01/2026")
	if !ok || tok != "02/01/2026" {
		t.Fatalf("expected first date got %q ok=%v", tok, ok)
	}
	if _, ok := FindDateToken("Invoice 123/45/67890"); ok {
		t.Fatalf("embedded digits should not form a date")
	}
	if _, ok := FindDateToken("no dates here"); ok {
		t.Fatalf("unexpected date")
	}
}
