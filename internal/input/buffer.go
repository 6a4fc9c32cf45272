package input

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// FormatVersion identifies the word layout shared with the guest program.
	FormatVersion = 1
	// WordBytes is the number of blob bytes packed into one word.
	WordBytes = 8
)

// Buffer is an immutable, ordered sequence of input words.
type Buffer struct {
	words []uint64
}

// FromWords copies words into a Buffer.
func FromWords(words []uint64) Buffer {
	return Buffer{words: append([]uint64(nil), words...)}
}

// Words returns a copy of the words.
func (b Buffer) Words() []uint64 {
	return append([]uint64(nil), b.words...)
}

// Len returns the word count.
func (b Buffer) Len() int {
	return len(b.words)
}

// Fields renders every word as a decimal string, in order.
func (b Buffer) Fields() []string {
	out := make([]string, len(b.words))
	for i, w := range b.words {
		out[i] = strconv.FormatUint(w, 10)
	}
	return out
}

// String renders the buffer as space-separated decimal words.
func (b Buffer) String() string {
	return strings.Join(b.Fields(), " ")
}

// ParseBuffer parses the textual form produced by String.
func ParseBuffer(s string) (Buffer, error) {
	fields := strings.Fields(s)
	words := make([]uint64, len(fields))
	for i, f := range fields {
		w, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Buffer{}, fmt.Errorf("word %d: %w", i, err)
		}
		words[i] = w
	}
	return Buffer{words: words}, nil
}

// Builder appends words in wire order. The zero value is ready to use.
type Builder struct {
	words []uint64
}

// Uint64 appends a single integer word.
func (b *Builder) Uint64(v uint64) *Builder {
	b.words = append(b.words, v)
	return b
}

// Bytes appends a length-prefixed blob: the byte count, then the packed words.
func (b *Builder) Bytes(data []byte) *Builder {
	b.words = append(b.words, uint64(len(data)))
	b.words = append(b.words, PackBytes(data)...)
	return b
}

// Hash appends a 32-byte blob.
func (b *Builder) Hash(h common.Hash) *Builder {
	return b.Bytes(h.Bytes())
}

// Buffer freezes the builder contents.
func (b *Builder) Buffer() Buffer {
	return FromWords(b.words)
}

// PackBytes packs data into little-endian words, zero-padding the last one.
func PackBytes(data []byte) []uint64 {
	words := make([]uint64, 0, PackedLen(len(data)))
	for i := 0; i < len(data); i += WordBytes {
		var chunk [WordBytes]byte
		copy(chunk[:], data[i:])
		words = append(words, binary.LittleEndian.Uint64(chunk[:]))
	}
	return words
}

// UnpackBytes reverses PackBytes for a blob of n bytes.
func UnpackBytes(words []uint64, n int) ([]byte, error) {
	if len(words) != PackedLen(n) {
		return nil, fmt.Errorf("%d words cannot hold exactly %d bytes", len(words), n)
	}
	out := make([]byte, len(words)*WordBytes)
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[i*WordBytes:], w)
	}
	for _, pad := range out[n:] {
		if pad != 0 {
			return nil, fmt.Errorf("non-zero padding after %d bytes", n)
		}
	}
	return out[:n], nil
}

// PackedLen returns the number of words needed for n blob bytes.
func PackedLen(n int) int {
	return (n + WordBytes - 1) / WordBytes
}
