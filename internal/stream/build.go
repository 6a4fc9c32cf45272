package stream

import (
	"fmt"

	"zkgraph/internal/filter"
)

// Build concatenates the kept receipts of res and computes one offset record
// per matched event.
func Build(res filter.Result) ([]byte, []uint64, error) {
	return BuildFrom(res.RawReceipts(), res.MatchedEvents())
}

// BuildFrom concatenates raws without separators and records offsets for every
// matched event of events. events[i] belongs to raws[i]; unmatched events are skipped.
func BuildFrom(raws [][]byte, events [][]filter.Event) ([]byte, []uint64, error) {
	if len(raws) != len(events) {
		return nil, nil, fmt.Errorf("raw receipts (%d) and event groups (%d) differ", len(raws), len(events))
	}

	size := 0
	for _, raw := range raws {
		size += len(raw)
	}
	stream := make([]byte, 0, size)
	offsets := make([]uint64, 0)

	for i, raw := range raws {
		base := len(stream)
		stream = append(stream, raw...)

		for _, ev := range events[i] {
			if !ev.Matched {
				continue
			}
			rec, err := recordFor(ev, base, len(raw))
			if err != nil {
				return nil, nil, fmt.Errorf("tx %d log %d: %w", ev.TxIndex, ev.LogIndex, err)
			}
			words := rec.Words()
			offsets = append(offsets, words[:]...)
		}
	}

	return stream, offsets, nil
}

func recordFor(ev filter.Event, base, rawLen int) (EventOffsetRecord, error) {
	span := ev.Log.Span
	if len(span.Topics) > MaxTopics {
		return EventOffsetRecord{}, fmt.Errorf("log has %d topics, at most %d supported", len(span.Topics), MaxTopics)
	}
	if span.End > rawLen || span.Start <= 0 {
		return EventOffsetRecord{}, fmt.Errorf("log span [%d,%d) outside receipt of %d bytes", span.Start, span.End, rawLen)
	}

	shifted := span.Shift(base)
	rec := EventOffsetRecord{
		TxOffset:   uint64(base),
		LogOffset:  uint64(shifted.Start),
		DataOffset: uint64(shifted.Data),
	}
	for i, pos := range shifted.Topics {
		rec.Topics[i] = uint64(pos)
	}
	return rec, nil
}
