package fingerprint

// DuplicateThreshold is the Hamming distance below which two receipts are the same image.
const DuplicateThreshold = 5

// HistoryEntry is one previously ingested receipt. Hash is the textual fingerprint; an
// empty Hash means the receipt was never fingerprinted.
type HistoryEntry struct {
	Hash string `json:"image_hash"`
	ID   int64  `json:"id"`
}

// Verdict is the outcome of one duplicate check.
type Verdict struct {
	IsDuplicate bool   `json:"is_duplicate"`
	MatchedID   *int64 `json:"matched_id"`
}

// Detect scans history in order and reports the first entry closer than
// DuplicateThreshold bits. Entries without a parseable hash are skipped; the caller is
// responsible for scoping history to the candidate's owner.
func Detect(candidate Fingerprint, history []HistoryEntry) Verdict {
	for _, h := range history {
		if h.Hash == "" {
			continue
		}
		fp, err := Parse(h.Hash)
		if err != nil {
			continue
		}
		if Distance(candidate, fp) < DuplicateThreshold {
			id := h.ID
			return Verdict{IsDuplicate: true, MatchedID: &id}
		}
	}
	return Verdict{}
}
