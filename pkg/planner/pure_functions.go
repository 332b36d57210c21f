package planner

import (
	"math/rand/v2"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
)

// Comparison is the outcome of the metadata-only pass.
type Comparison int

const (
	// CompareNew means the name is absent from the inventory.
	CompareNew Comparison = iota
	// CompareSizeMismatch is decisive and needs no content read.
	CompareSizeMismatch
	// CompareNeedChecksum means sizes agree and content must be compared.
	CompareNeedChecksum
)

func (c Comparison) String() string {
	switch c {
	case CompareNew:
		return "new"
	case CompareSizeMismatch:
		return "size-mismatch"
	case CompareNeedChecksum:
		return "need-checksum"
	default:
		return "unknown"
	}
}

// Compare decides from sizes alone. Matching is strictly by name.
func Compare(localSize int64, entry inventory.Entry, found bool) Comparison {
	if !found {
		return CompareNew
	}
	if entry.Size != localSize {
		return CompareSizeMismatch
	}
	return CompareNeedChecksum
}

// Order returns the processing order of n candidates as indexes into the
// supplied list. A nil rng keeps the supplied order.
func Order(n int, rng *rand.Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}
