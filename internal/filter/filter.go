package filter

import (
	"errors"
	"fmt"

	"zkgraph/internal/receipt"
)

// ErrNoMatch reports that no log in the block matched. Filter never returns it;
// callers decide whether an empty input is acceptable.
var ErrNoMatch = errors.New("no matching events")

// Event is one log of a kept receipt. Only Matched events are counted and offset.
type Event struct {
	TxIndex  int
	LogIndex int
	Log      receipt.Log
	Matched  bool
}

// MatchedReceipt is a receipt holding at least one matched log.
type MatchedReceipt struct {
	TxIndex int
	Raw     []byte
	Decoded *receipt.Decoded
	Events  []Event
}

// Matches returns the matched events of the receipt in log order.
func (r MatchedReceipt) Matches() []Event {
	out := make([]Event, 0, len(r.Events))
	for _, ev := range r.Events {
		if ev.Matched {
			out = append(out, ev)
		}
	}
	return out
}

// Result is the filter output, in ascending transaction index order.
type Result struct {
	Receipts []MatchedReceipt
}

// RawReceipts returns the raw bytes of every kept receipt.
func (r Result) RawReceipts() [][]byte {
	out := make([][]byte, len(r.Receipts))
	for i, rc := range r.Receipts {
		out[i] = rc.Raw
	}
	return out
}

// MatchedEvents returns the matched events grouped per kept receipt.
func (r Result) MatchedEvents() [][]Event {
	out := make([][]Event, len(r.Receipts))
	for i, rc := range r.Receipts {
		out[i] = rc.Matches()
	}
	return out
}

// MatchedCount returns the number of matched events across all receipts.
func (r Result) MatchedCount() int {
	total := 0
	for _, rc := range r.Receipts {
		for _, ev := range rc.Events {
			if ev.Matched {
				total++
			}
		}
	}
	return total
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Receipts) == 0
}

// Filter keeps every receipt with at least one log accepted by m. raws and
// decoded are parallel slices in ascending transaction index order.
func Filter(raws [][]byte, decoded []*receipt.Decoded, m Matcher) (Result, error) {
	if len(raws) != len(decoded) {
		return Result{}, fmt.Errorf("raw receipts (%d) and decoded receipts (%d) differ", len(raws), len(decoded))
	}
	if m == nil {
		return Result{}, fmt.Errorf("matcher is nil")
	}

	var res Result
	for txIndex, rc := range decoded {
		if rc == nil {
			return Result{}, fmt.Errorf("decoded receipt %d is nil", txIndex)
		}

		events := make([]Event, len(rc.Logs))
		matched := 0
		for logIndex, log := range rc.Logs {
			ok := m.Match(log)
			if ok {
				matched++
			}
			events[logIndex] = Event{
				TxIndex:  txIndex,
				LogIndex: logIndex,
				Log:      log,
				Matched:  ok,
			}
		}
		if matched == 0 {
			continue
		}

		res.Receipts = append(res.Receipts, MatchedReceipt{
			TxIndex: txIndex,
			Raw:     raws[txIndex],
			Decoded: rc,
			Events:  events,
		})
	}

	return res, nil
}

// DecodeAndFilter decodes every raw receipt and filters the result. A decode
// failure aborts with a *receipt.MalformedReceiptError naming the tx index.
func DecodeAndFilter(raws [][]byte, m Matcher) (Result, error) {
	decoded := make([]*receipt.Decoded, len(raws))
	for i, raw := range raws {
		rc, err := receipt.DecodeAt(i, raw)
		if err != nil {
			return Result{}, err
		}
		decoded[i] = rc
	}
	return Filter(raws, decoded, m)
}
