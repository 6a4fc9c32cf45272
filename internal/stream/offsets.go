package stream

import (
	"errors"
	"fmt"
)

const (
	// OffsetArity is the number of words recorded per matched event.
	OffsetArity = 7
	// LayoutVersion identifies the meaning of the seven words below.
	LayoutVersion = 1
	// MaxTopics is the largest topic count a log can carry (LOG0..LOG4).
	MaxTopics = 4
)

// ErrOffsetArity is returned when an offset list is not a multiple of OffsetArity.
var ErrOffsetArity = errors.New("offset list length is not a multiple of 7")

// EventOffsetRecord locates one matched event inside the receipt stream.
// All positions are relative to the first byte of the stream.
//
// Layout v1:
//
//	0 TxOffset   first byte of the receipt (type byte for typed receipts)
//	1 LogOffset  RLP list header of the log
//	2-5 Topics   first content byte of topic0..topic3, 0 when absent
//	6 DataOffset RLP header of the data item
//
// Zero never addresses topic content because every receipt starts with a header.
type EventOffsetRecord struct {
	TxOffset   uint64
	LogOffset  uint64
	Topics     [MaxTopics]uint64
	DataOffset uint64
}

// Words flattens the record in layout order.
func (r EventOffsetRecord) Words() [OffsetArity]uint64 {
	return [OffsetArity]uint64{
		r.TxOffset,
		r.LogOffset,
		r.Topics[0],
		r.Topics[1],
		r.Topics[2],
		r.Topics[3],
		r.DataOffset,
	}
}

// TopicCount returns the number of topics present in the record.
func (r EventOffsetRecord) TopicCount() int {
	n := 0
	for _, off := range r.Topics {
		if off == 0 {
			break
		}
		n++
	}
	return n
}

// Records splits a flat offset list into records.
func Records(offsets []uint64) ([]EventOffsetRecord, error) {
	if len(offsets)%OffsetArity != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOffsetArity, len(offsets))
	}
	out := make([]EventOffsetRecord, 0, len(offsets)/OffsetArity)
	for i := 0; i < len(offsets); i += OffsetArity {
		w := offsets[i : i+OffsetArity]
		out = append(out, EventOffsetRecord{
			TxOffset:   w[0],
			LogOffset:  w[1],
			Topics:     [MaxTopics]uint64{w[2], w[3], w[4], w[5]},
			DataOffset: w[6],
		})
	}
	return out, nil
}

// Flatten is the inverse of Records.
func Flatten(records []EventOffsetRecord) []uint64 {
	out := make([]uint64, 0, len(records)*OffsetArity)
	for _, rec := range records {
		words := rec.Words()
		out = append(out, words[:]...)
	}
	return out
}
