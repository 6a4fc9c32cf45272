package guest

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"zkgraph/internal/filter"
)

// StateHandler derives the graph state from the matched events. When check is
// false the guest skips the expected-state comparison.
type StateHandler func(events []filter.Event) (state []byte, check bool)

const (
	HandlerNone       = "none"
	HandlerDataDigest = "data-digest"
)

// NoState never produces a state.
func NoState(_ []filter.Event) ([]byte, bool) {
	return nil, false
}

// DataDigest hashes the concatenated data of every matched event.
func DataDigest(events []filter.Event) ([]byte, bool) {
	payload := make([][]byte, 0, len(events))
	for _, ev := range events {
		payload = append(payload, ev.Log.Data)
	}
	return crypto.Keccak256(payload...), true
}

// HandlerByName resolves a configured handler name.
func HandlerByName(name string) (StateHandler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HandlerNone:
		return NoState, nil
	case HandlerDataDigest:
		return DataDigest, nil
	default:
		return nil, fmt.Errorf("unknown state handler: %s", name)
	}
}
