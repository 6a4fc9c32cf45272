// Package guest is a reference guest program: it consumes the public and
// private inputs through a Host exactly as the zkVM program does and
// re-validates the receipt stream against the configured event filter.
package guest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"zkgraph/internal/filter"
	"zkgraph/internal/input"
	"zkgraph/internal/receipt"
	"zkgraph/internal/stream"
)

var (
	ErrUnmatchedReceipt = errors.New("stream holds a receipt without matching events")
	ErrStateMismatch    = errors.New("state mismatch")
	ErrStreamMismatch   = errors.New("rebuilt stream differs from input")
)

// Host answers input reads; the mock harness and the zkVM host both implement it.
type Host interface {
	WasmInput(public bool) (uint64, error)
}

type hostSource struct {
	host   Host
	public bool
}

func (s hostSource) Next() (uint64, error) {
	return s.host.WasmInput(s.public)
}

// Program is the reference guest.
type Program struct {
	Matcher filter.Matcher
	Handler StateHandler
}

// Output summarises one guest run.
type Output struct {
	BlockNumber   uint64
	BlockHash     common.Hash
	ReceiptsRoot  common.Hash
	ExpectedState []byte
	Receipts      int
	Events        int
	Offsets       []uint64
	State         []byte
	StateChecked  bool
}

// Run reads every input field in wire order and validates the stream.
func (p Program) Run(host Host) (Output, error) {
	if host == nil {
		return Output{}, fmt.Errorf("host is nil")
	}
	if p.Matcher == nil {
		return Output{}, fmt.Errorf("matcher is nil")
	}
	handler := p.Handler
	if handler == nil {
		handler = NoState
	}

	pub, err := input.ReadPublic(hostSource{host: host, public: true})
	if err != nil {
		return Output{}, err
	}
	priv, err := input.ReadPrivate(hostSource{host: host, public: false})
	if err != nil {
		return Output{}, err
	}

	parts, err := receipt.SplitStream(priv.Stream)
	if err != nil {
		return Output{}, fmt.Errorf("split stream: %w", err)
	}
	res, err := filter.DecodeAndFilter(parts, p.Matcher)
	if err != nil {
		return Output{}, fmt.Errorf("decode stream: %w", err)
	}
	if len(res.Receipts) != len(parts) {
		return Output{}, fmt.Errorf("%w: %d of %d receipts matched", ErrUnmatchedReceipt, len(res.Receipts), len(parts))
	}

	rebuilt, offsets, err := stream.Build(res)
	if err != nil {
		return Output{}, fmt.Errorf("rebuild offsets: %w", err)
	}
	if !bytes.Equal(rebuilt, priv.Stream) {
		return Output{}, ErrStreamMismatch
	}

	var matched []filter.Event
	for _, group := range res.MatchedEvents() {
		matched = append(matched, group...)
	}

	out := Output{
		BlockNumber:   pub.BlockNumber,
		BlockHash:     pub.BlockHash,
		ReceiptsRoot:  priv.ReceiptsRoot,
		ExpectedState: pub.ExpectedState,
		Receipts:      len(parts),
		Events:        len(matched),
		Offsets:       offsets,
	}

	state, check := handler(matched)
	out.State = state
	out.StateChecked = check
	if check && !bytes.Equal(state, pub.ExpectedState) {
		return out, fmt.Errorf("%w: computed %x, expected %x", ErrStateMismatch, state, pub.ExpectedState)
	}

	return out, nil
}
