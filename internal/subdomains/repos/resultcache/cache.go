// Package resultcache memoizes parse results in an LRU keyed by a hash of the input.
package resultcache

import (
	"slices"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/subdomains/internal/subdomains/domain"
	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

// resultCache keys entries by the xxhash of the input so that long lines do not
// pin their text twice. Hits are confirmed against the stored input.
type resultCache struct {
	lru       *lru.Cache[uint64, domain.ParseResult]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is used when size <= 0.
type disabledCache struct{}

// New creates a cache holding up to size results. size <= 0 returns a cache
// that never stores anything.
func New(size int) (scanner.ResultCache, error) {
	if size <= 0 {
		return disabledCache{}, nil
	}
	var rc resultCache
	cache, err := lru.NewWithEvict(size, func(uint64, domain.ParseResult) {
		atomic.AddUint64(&rc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return &rc, nil
}

func (c *resultCache) Get(input string) (domain.ParseResult, bool) {
	if res, ok := c.lru.Get(xxhash.Sum64String(input)); ok && res.Input == input {
		atomic.AddUint64(&c.hits, 1)
		res.Labels = slices.Clone(res.Labels)
		return res, true
	}
	atomic.AddUint64(&c.misses, 1)
	return domain.ParseResult{}, false
}

func (c *resultCache) Put(res domain.ParseResult) {
	res.Labels = slices.Clone(res.Labels)
	c.lru.Add(xxhash.Sum64String(res.Input), res)
}

func (c *resultCache) Len() int { return c.lru.Len() }

func (c *resultCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

func (disabledCache) Get(string) (domain.ParseResult, bool) { return domain.ParseResult{}, false }
func (disabledCache) Put(domain.ParseResult)                {}
func (disabledCache) Len() int                              { return 0 }
func (disabledCache) Stats() (uint64, uint64, uint64)       { return 0, 0, 0 }

var _ scanner.ResultCache = (*resultCache)(nil)
var _ scanner.ResultCache = disabledCache{}
