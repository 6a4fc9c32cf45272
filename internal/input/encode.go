package input

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TrimHexPrefix strips a leading 0x or 0X.
func TrimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// ParseExpectedState validates the expected state argument and returns its bytes.
// The 0x prefix is optional; the hex body must have an even length.
func ParseExpectedState(s string) ([]byte, error) {
	body := TrimHexPrefix(strings.TrimSpace(s))
	data, err := hexutil.Decode("0x" + body)
	if err != nil {
		return nil, fmt.Errorf("invalid expected state %q: %w", s, err)
	}
	return data, nil
}

// EncodePublic lays out the public input: block number, block hash, expected state.
func EncodePublic(number uint64, hash common.Hash, expectedState string) (Buffer, error) {
	state, err := ParseExpectedState(expectedState)
	if err != nil {
		return Buffer{}, err
	}
	var b Builder
	b.Uint64(number).Hash(hash).Bytes(state)
	return b.Buffer(), nil
}

// EncodePrivate lays out the private input: receipt stream, receipts root.
func EncodePrivate(stream []byte, receiptsRoot common.Hash) Buffer {
	var b Builder
	b.Bytes(stream).Hash(receiptsRoot)
	return b.Buffer()
}
