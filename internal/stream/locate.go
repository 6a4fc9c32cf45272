package stream

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Located is an event re-sliced from the stream through its offset record.
type Located struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Locate re-slices the address, topics and data of the event described by rec.
func Locate(stream []byte, rec EventOffsetRecord) (Located, error) {
	if rec.LogOffset >= uint64(len(stream)) {
		return Located{}, fmt.Errorf("log offset %d outside stream of %d bytes", rec.LogOffset, len(stream))
	}
	content, _, err := rlp.SplitList(stream[rec.LogOffset:])
	if err != nil {
		return Located{}, fmt.Errorf("log at %d: %w", rec.LogOffset, err)
	}
	addr, _, err := rlp.SplitString(content)
	if err != nil {
		return Located{}, fmt.Errorf("address at %d: %w", rec.LogOffset, err)
	}
	if len(addr) != common.AddressLength {
		return Located{}, fmt.Errorf("address at %d has %d bytes", rec.LogOffset, len(addr))
	}

	out := Located{Address: common.BytesToAddress(addr)}
	for i := 0; i < rec.TopicCount(); i++ {
		off := rec.Topics[i]
		if off+common.HashLength > uint64(len(stream)) {
			return Located{}, fmt.Errorf("topic %d offset %d outside stream", i, off)
		}
		out.Topics = append(out.Topics, common.BytesToHash(stream[off:off+common.HashLength]))
	}

	if rec.DataOffset >= uint64(len(stream)) {
		return Located{}, fmt.Errorf("data offset %d outside stream of %d bytes", rec.DataOffset, len(stream))
	}
	data, _, err := rlp.SplitString(stream[rec.DataOffset:])
	if err != nil {
		return Located{}, fmt.Errorf("data at %d: %w", rec.DataOffset, err)
	}
	out.Data = common.CopyBytes(data)

	return out, nil
}
