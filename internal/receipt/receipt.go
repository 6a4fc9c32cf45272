package receipt

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Decoded is the structured view of one raw receipt.
type Decoded struct {
	// Type is the transaction type byte, 0 for untyped (legacy) receipts.
	Type              uint8
	Status            bool
	PostState         []byte
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []Log
}

// Log is a single log entry together with its byte positions inside the raw receipt.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
	Span    LogSpan
}

// LogSpan holds positions relative to the first byte of the raw receipt.
type LogSpan struct {
	// Start is the RLP list header of the log.
	Start int
	// Address is the first content byte of the 20-byte address.
	Address int
	// Topics holds the first content byte of every topic, in declared order.
	Topics []int
	// Data is the RLP header of the data item.
	Data int
	// DataContent is the first content byte of the data payload.
	DataContent int
	// End is one past the last byte of the log.
	End int
}

// Shift returns a copy of the span moved by delta bytes.
func (s LogSpan) Shift(delta int) LogSpan {
	topics := make([]int, len(s.Topics))
	for i, pos := range s.Topics {
		topics[i] = pos + delta
	}
	return LogSpan{
		Start:       s.Start + delta,
		Address:     s.Address + delta,
		Topics:      topics,
		Data:        s.Data + delta,
		DataContent: s.DataContent + delta,
		End:         s.End + delta,
	}
}

// Topic0 returns the first topic, if present.
func (l Log) Topic0() (common.Hash, bool) {
	if len(l.Topics) == 0 {
		return common.Hash{}, false
	}
	return l.Topics[0], true
}
