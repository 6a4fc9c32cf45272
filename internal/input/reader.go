package input

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MaxBlobBytes bounds the length word a Reader accepts.
const MaxBlobBytes = 1 << 30

// ErrExhausted is returned by SliceSource when no word is left.
var ErrExhausted = errors.New("input exhausted")

// WordSource yields words one at a time.
type WordSource interface {
	Next() (uint64, error)
}

// SliceSource serves words from a slice.
type SliceSource struct {
	words []uint64
	pos   int
}

func NewSliceSource(b Buffer) *SliceSource {
	return &SliceSource{words: b.words}
}

func (s *SliceSource) Next() (uint64, error) {
	if s.pos >= len(s.words) {
		return 0, ErrExhausted
	}
	w := s.words[s.pos]
	s.pos++
	return w, nil
}

// Reader decodes the word layout written by Builder.
type Reader struct {
	src WordSource
}

func NewReader(src WordSource) *Reader {
	return &Reader{src: src}
}

// Uint64 reads one integer word.
func (r *Reader) Uint64() (uint64, error) {
	return r.src.Next()
}

// Bytes reads a length-prefixed blob.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.src.Next()
	if err != nil {
		return nil, err
	}
	if n > MaxBlobBytes {
		return nil, fmt.Errorf("blob length %d exceeds %d", n, MaxBlobBytes)
	}
	words := make([]uint64, PackedLen(int(n)))
	for i := range words {
		if words[i], err = r.src.Next(); err != nil {
			return nil, err
		}
	}
	return UnpackBytes(words, int(n))
}

// Hash reads a 32-byte blob.
func (r *Reader) Hash() (common.Hash, error) {
	data, err := r.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash blob has %d bytes", len(data))
	}
	return common.BytesToHash(data), nil
}

// Public is the decoded public input.
type Public struct {
	BlockNumber   uint64
	BlockHash     common.Hash
	ExpectedState []byte
}

// ExpectedStateHex renders the expected state the way it was passed in, without 0x.
func (p Public) ExpectedStateHex() string {
	return TrimHexPrefix(hexutil.Encode(p.ExpectedState))
}

// Private is the decoded private input.
type Private struct {
	Stream       []byte
	ReceiptsRoot common.Hash
}

// ReadPublic reads the public fields in wire order.
func ReadPublic(src WordSource) (Public, error) {
	r := NewReader(src)
	var out Public
	var err error
	if out.BlockNumber, err = r.Uint64(); err != nil {
		return Public{}, fmt.Errorf("read block number: %w", err)
	}
	if out.BlockHash, err = r.Hash(); err != nil {
		return Public{}, fmt.Errorf("read block hash: %w", err)
	}
	if out.ExpectedState, err = r.Bytes(); err != nil {
		return Public{}, fmt.Errorf("read expected state: %w", err)
	}
	return out, nil
}

// ReadPrivate reads the private fields in wire order.
func ReadPrivate(src WordSource) (Private, error) {
	r := NewReader(src)
	var out Private
	var err error
	if out.Stream, err = r.Bytes(); err != nil {
		return Private{}, fmt.Errorf("read receipt stream: %w", err)
	}
	if out.ReceiptsRoot, err = r.Hash(); err != nil {
		return Private{}, fmt.Errorf("read receipts root: %w", err)
	}
	return out, nil
}
