package scanner

import (
	"time"

	"github.com/haukened/subdomains/internal/subdomains/domain"
)

// Parser is the extraction pipeline the scanner drives.
type Parser interface {
	Parse(input string) domain.ParseResult
	ParseAny(v any) domain.ParseResult
}

// ResultCache memoizes parse results by input.
type ResultCache interface {
	Get(input string) (domain.ParseResult, bool)
	Put(res domain.ParseResult)
	Len() int
	Stats() (hits, misses, evictions uint64)
}

// SeenFilter answers whether a key was probably seen before, recording it.
// False positives are possible; false negatives are not.
type SeenFilter interface {
	TestAndAdd(key string) bool
}

// Index persists per-run counts of extracted registrable domains.
type Index interface {
	Record(runID string, counts map[string]uint64, at time.Time) error
}

// Metrics receives scanner observations.
type Metrics interface {
	ObserveLine()
	ObserveResult(matched bool)
	ObserveCache(hit bool)
	ObserveDuplicate()
	ObserveScan(d time.Duration)
}
