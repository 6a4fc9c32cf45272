package filter

import (
	"github.com/ethereum/go-ethereum/common"

	"zkgraph/internal/receipt"
)

// Matcher decides whether a log takes part in the proof.
type Matcher interface {
	Match(log receipt.Log) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(log receipt.Log) bool

func (f MatcherFunc) Match(log receipt.Log) bool {
	return f(log)
}

// EventMatchSpec selects logs emitted by one contract whose topic0 is one of Signatures.
type EventMatchSpec struct {
	Address    common.Address
	Signatures []common.Hash

	set map[common.Hash]struct{}
}

// NewEventMatchSpec builds an immutable spec. Duplicate signatures collapse.
func NewEventMatchSpec(address common.Address, signatures []common.Hash) EventMatchSpec {
	set := make(map[common.Hash]struct{}, len(signatures))
	sigs := make([]common.Hash, 0, len(signatures))
	for _, sig := range signatures {
		if _, ok := set[sig]; ok {
			continue
		}
		set[sig] = struct{}{}
		sigs = append(sigs, sig)
	}
	return EventMatchSpec{Address: address, Signatures: sigs, set: set}
}

// Contains reports whether sig is an accepted event signature.
func (s EventMatchSpec) Contains(sig common.Hash) bool {
	if s.set != nil {
		_, ok := s.set[sig]
		return ok
	}
	for _, candidate := range s.Signatures {
		if candidate == sig {
			return true
		}
	}
	return false
}

// Match implements Matcher.
func (s EventMatchSpec) Match(log receipt.Log) bool {
	if log.Address != s.Address {
		return false
	}
	topic0, ok := log.Topic0()
	if !ok {
		return false
	}
	return s.Contains(topic0)
}
