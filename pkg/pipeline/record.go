package pipeline

import (
	"encoding/json"

	"receiptscan/pkg/fingerprint"
	"receiptscan/pkg/receipt"
)

// Record is the merged result handed back to the caller for confirmation and storage.
type Record struct {
	receipt.Fields
	fingerprint.Verdict
	Fingerprint fingerprint.Fingerprint
	// RawText is the engine transcription, kept for debugging; not serialized.
	RawText string
}

// MarshalJSON emits the flat output shape with amount as a two-decimal JSON number.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Merchant    string           `json:"merchant"`
		Date        string           `json:"date"`
		Amount      json.Number      `json:"amount"`
		Currency    string           `json:"currency"`
		Category    receipt.Category `json:"category"`
		IsDuplicate bool             `json:"is_duplicate"`
		MatchedID   *int64           `json:"matched_id"`
		ImageHash   string           `json:"image_hash"`
	}{
		Merchant:    r.Merchant,
		Date:        r.Date,
		Amount:      json.Number(r.Amount.StringFixed(2)),
		Currency:    r.Currency,
		Category:    r.Category,
		IsDuplicate: r.IsDuplicate,
		MatchedID:   r.MatchedID,
		ImageHash:   r.Fingerprint.String(),
	})
}
