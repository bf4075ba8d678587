// Package seen de-duplicates registrable domains across a scan with a Bloom filter.
package seen

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

const (
	defaultCapacity = 10_000
	defaultFPRate   = 0.01
)

// Filter wraps a bits-and-blooms filter. TestAndAdd is serialized; reads of
// the estimate may run concurrently with each other.
type Filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

// New sizes a filter for capacity keys at the target false-positive rate.
// Invalid arguments fall back to 10k keys at 1%.
func New(capacity uint, fpRate float64) *Filter {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = defaultFPRate
	}
	return &Filter{bf: bitsbloom.NewWithEstimates(capacity, fpRate)}
}

// TestAndAdd reports whether key was probably added before and adds it.
func (f *Filter) TestAndAdd(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bf.TestAndAddString(key)
}

// EstimatedCount approximates the number of distinct keys added.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.bf.ApproximatedSize())
}

// Params returns the bit count and hash function count chosen for the filter.
func (f *Filter) Params() (m uint, k uint) {
	return f.bf.Cap(), f.bf.K()
}

var _ scanner.SeenFilter = (*Filter)(nil)
