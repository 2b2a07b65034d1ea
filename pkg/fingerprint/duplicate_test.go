package fingerprint

import "testing"

func TestDetectEmptyHistory(t *testing.T) {
	v := Detect(0x1234, nil)
	if v.IsDuplicate || v.MatchedID != nil {
		t.Fatalf("expected no duplicate got %+v", v)
	}
}

func TestDetectFirstMatchInOrder(t *testing.T) {
	candidate := Fingerprint(0xAAAAAAAAAAAAAAAA)
	near1 := candidate ^ 0x3 // 2 bits
	near2 := candidate ^ 0x1 // 1 bit, closer but later
	far := ^candidate
	history := []HistoryEntry{
		{Hash: "", ID: 1},
		{Hash: "not-a-hash", ID: 2},
		{Hash: far.String(), ID: 3},
		{Hash: near1.String(), ID: 4},
		{Hash: near2.String(), ID: 5},
	}
	v := Detect(candidate, history)
	if !v.IsDuplicate || v.MatchedID == nil || *v.MatchedID != 4 {
		t.Fatalf("expected first qualifying entry 4 got %+v", v)
	}

	reversed := make([]HistoryEntry, len(history))
	for i, h := range history {
		reversed[len(history)-1-i] = h
	}
	v = Detect(candidate, reversed)
	if !v.IsDuplicate || *v.MatchedID != 5 {
		t.Fatalf("reversed scan should still flag a duplicate and report entry 5, got %+v", v)
	}
}

func TestDetectThresholdIsStrict(t *testing.T) {
	candidate := Fingerprint(0)
	atThreshold := []HistoryEntry{{Hash: Fingerprint(0x1F).String(), ID: 9}} // 5 bits
	if v := Detect(candidate, atThreshold); v.IsDuplicate {
		t.Fatalf("distance equal to threshold must not match: %+v", v)
	}
	below := []HistoryEntry{{Hash: Fingerprint(0xF).String(), ID: 9}} // 4 bits
	if v := Detect(candidate, below); !v.IsDuplicate || *v.MatchedID != 9 {
		t.Fatalf("distance below threshold must match: %+v", v)
	}
}

func TestDetectMalformedHistoryIsNotAnError(t *testing.T) {
	v := Detect(42, []HistoryEntry{{Hash: "zz"}, {Hash: ""}, {Hash: "p:"}})
	if v.IsDuplicate {
		t.Fatalf("malformed history should yield no duplicate")
	}
}
