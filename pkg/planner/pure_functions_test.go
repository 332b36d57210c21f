package planner

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuya-takeyama/strict-mtp-sync/pkg/inventory"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		localSize int64
		entry     inventory.Entry
		found     bool
		want      Comparison
	}{
		{
			name:      "absent from inventory",
			localSize: 500,
			want:      CompareNew,
		},
		{
			name:      "size differs",
			localSize: 500,
			entry:     inventory.Entry{Name: "a.epub", Size: 300},
			found:     true,
			want:      CompareSizeMismatch,
		},
		{
			name:      "size equal",
			localSize: 500,
			entry:     inventory.Entry{Name: "a.epub", Size: 500},
			found:     true,
			want:      CompareNeedChecksum,
		},
		{
			name:      "size equal with recorded checksum still compares content",
			localSize: 500,
			entry:     inventory.Entry{Name: "a.epub", Size: 500, Checksum: "abc"},
			found:     true,
			want:      CompareNeedChecksum,
		},
		{
			name:      "empty remote file",
			localSize: 10,
			entry:     inventory.Entry{Name: "a.epub", Size: 0},
			found:     true,
			want:      CompareSizeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.localSize, tt.entry, tt.found)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestOrderKeepsSuppliedOrder(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, Order(4, nil))
	assert.Empty(t, Order(0, nil))
}

func TestOrderRandomizedIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	got := Order(50, rng)
	assert.Len(t, got, 50)

	sorted := append([]int(nil), got...)
	sort.Ints(sorted)
	for i, v := range sorted {
		assert.Equal(t, i, v)
	}
	assert.NotEqual(t, Order(50, nil), got)
}

func TestOrderDeterministicForSeed(t *testing.T) {
	a := Order(20, rand.New(rand.NewPCG(7, 7)))
	b := Order(20, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}
