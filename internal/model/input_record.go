package model

import (
	"encoding/json"
)

// InputRecord is a generated pair of input buffers kept for inspection and resubmission.
type InputRecord struct {
	BlockNumber   uint64        `json:"block_number"`
	BlockHash     string        `json:"block_hash"`
	ReceiptsRoot  string        `json:"receipts_root"`
	ExpectedState string        `json:"expected_state"`
	ReceiptCount  int           `json:"receipt_count"`
	MatchedCount  int           `json:"matched_count"`
	StreamBytes   int           `json:"stream_bytes"`
	Offsets       []uint64      `json:"offsets"`
	Events        []EventRecord `json:"events"`
	PublicInput   string        `json:"public_input"`
	PrivateInput  string        `json:"private_input"`
	FormatVersion int           `json:"format_version"`
	GeneratedAt   string        `json:"generated_at"`
}

// MarshalJSON ensures InputRecord is encoded with stable field names.
func (r InputRecord) MarshalJSON() ([]byte, error) {
	type Alias InputRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an InputRecord from JSON.
func (r *InputRecord) UnmarshalJSON(data []byte) error {
	type Alias InputRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = InputRecord(a)
	return nil
}
