package storage

import (
	"context"
	"strings"

	"zkgraph/internal/chain"
	"zkgraph/internal/model"
)

// Storage defines a sink for generated input records.
type Storage interface {
	PutInputRecord(ctx context.Context, record model.InputRecord) error
}

// TaskStorage records proving tasks accepted by the backend.
type TaskStorage interface {
	PutProofTask(ctx context.Context, task model.ProofTask) error
}

// RecordSource looks up previously generated inputs.
type RecordSource interface {
	LatestInputRecord(ctx context.Context, id chain.BlockID) (model.InputRecord, bool, error)
}

// MatchesBlock reports whether the record was generated for id.
func MatchesBlock(record model.InputRecord, id chain.BlockID) bool {
	if id.IsHash {
		return strings.EqualFold(record.BlockHash, id.Hash.Hex())
	}
	return record.BlockNumber == id.Number
}
