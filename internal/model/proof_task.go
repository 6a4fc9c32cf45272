package model

// ProofTask records a proving job accepted by the backend.
type ProofTask struct {
	TaskID      string `json:"task_id"`
	ImageHash   string `json:"image_hash"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	SubmittedAt string `json:"submitted_at"`
}
