// Package mock provides an in-process stand-in for the zkVM host so that a
// guest program can run against generated inputs without a proving service.
package mock

import (
	"fmt"

	"zkgraph/internal/input"
)

const (
	BufferPublic  = "public"
	BufferPrivate = "private"
)

// InputUnderflowError is returned when the guest reads past the end of a buffer.
type InputUnderflowError struct {
	Buffer   string
	Position int
}

func (e *InputUnderflowError) Error() string {
	return fmt.Sprintf("%s input underflow at word %d", e.Buffer, e.Position)
}

// Harness serves the two input buffers through independent cursors.
type Harness struct {
	public  []uint64
	private []uint64

	publicPos  int
	privatePos int
}

func NewHarness(public, private input.Buffer) *Harness {
	return &Harness{
		public:  public.Words(),
		private: private.Words(),
	}
}

// ReadPublic returns the next public word.
func (h *Harness) ReadPublic() (uint64, error) {
	return read(BufferPublic, h.public, &h.publicPos)
}

// ReadPrivate returns the next private word.
func (h *Harness) ReadPrivate() (uint64, error) {
	return read(BufferPrivate, h.private, &h.privatePos)
}

// WasmInput mirrors the zkWASM host call: public selects the buffer.
func (h *Harness) WasmInput(public bool) (uint64, error) {
	if public {
		return h.ReadPublic()
	}
	return h.ReadPrivate()
}

// Remaining returns the unread word counts. Unread words are not an error.
func (h *Harness) Remaining() (public, private int) {
	return len(h.public) - h.publicPos, len(h.private) - h.privatePos
}

// Reset rewinds both cursors.
func (h *Harness) Reset() {
	h.publicPos = 0
	h.privatePos = 0
}

// Public exposes the public cursor as an input.WordSource.
func (h *Harness) Public() input.WordSource {
	return sourceFunc(h.ReadPublic)
}

// Private exposes the private cursor as an input.WordSource.
func (h *Harness) Private() input.WordSource {
	return sourceFunc(h.ReadPrivate)
}

type sourceFunc func() (uint64, error)

func (f sourceFunc) Next() (uint64, error) {
	return f()
}

func read(name string, words []uint64, pos *int) (uint64, error) {
	if *pos >= len(words) {
		return 0, &InputUnderflowError{Buffer: name, Position: *pos}
	}
	w := words[*pos]
	*pos++
	return w, nil
}
