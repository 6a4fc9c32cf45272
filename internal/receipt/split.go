package receipt

import "github.com/ethereum/go-ethereum/rlp"

// SplitStream splits a concatenation of raw receipts back into the individual
// receipts. Boundaries are derived from the RLP headers alone.
func SplitStream(stream []byte) ([][]byte, error) {
	var out [][]byte
	pos := 0
	for pos < len(stream) {
		start := pos
		if stream[pos] <= maxTypeByte {
			pos++
		}
		if pos >= len(stream) {
			return nil, malformed("type byte at %d without receipt body", start)
		}
		kind, _, rest, err := rlp.Split(stream[pos:])
		if err != nil {
			return nil, malformedErr("stream receipt", err)
		}
		if kind != rlp.List {
			return nil, malformed("stream item at %d is not a list", pos)
		}
		pos = len(stream) - len(rest)
		out = append(out, stream[start:pos])
	}
	return out, nil
}
