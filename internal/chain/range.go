package chain

import "fmt"

// IndexRange represents an inclusive index range.
type IndexRange struct {
	From uint64
	To   uint64
}

// SplitRange splits an inclusive range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]IndexRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("range end must be >= range start")
	}

	ranges := make([]IndexRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, IndexRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
