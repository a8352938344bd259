package indexer

import "fmt"

// HeightRange is an inclusive range of block heights.
type HeightRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a height range into batches of size batchSize, lowest first.
func SplitRange(from, to, batchSize uint64) ([]HeightRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to height must be >= from height")
	}

	ranges := make([]HeightRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, HeightRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}

// SplitRangeDescending is SplitRange with the newest batch first.
func SplitRangeDescending(from, to, batchSize uint64) ([]HeightRange, error) {
	ranges, err := SplitRange(from, to, batchSize)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ranges)-1; i < j; i, j = i+1, j-1 {
		ranges[i], ranges[j] = ranges[j], ranges[i]
	}
	return ranges, nil
}

// Heights lists the range from To down to From.
func (r HeightRange) Heights() []uint64 {
	if r.To < r.From {
		return nil
	}
	out := make([]uint64, 0, r.To-r.From+1)
	for h := r.To; ; h-- {
		out = append(out, h)
		if h == r.From {
			break
		}
	}
	return out
}
