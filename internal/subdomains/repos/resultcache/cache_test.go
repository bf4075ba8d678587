package resultcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/subdomains/internal/subdomains/domain"
)

func matched(t *testing.T, input, host string) domain.ParseResult {
	t.Helper()
	res, ok := domain.NewMatchedResult(input, host, host)
	require.True(t, ok)
	return res
}

func TestResultCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	_, ok := c.Get("www.example.com")
	assert.False(t, ok, "expected miss before put")

	c.Put(matched(t, "www.example.com", "www.example.com"))

	got, ok := c.Get("www.example.com")
	require.True(t, ok)
	assert.Equal(t, "example.com", got.RootDomain)
	assert.Equal(t, []string{"www", "example", "com"}, got.Labels)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestResultCache_ReturnedLabelsAreIndependent(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	c.Put(matched(t, "example.com", "example.com"))

	first, _ := c.Get("example.com")
	first.Labels[0] = "mutated"

	second, _ := c.Get("example.com")
	assert.Equal(t, "example", second.Labels[0])
}

func TestResultCache_UnmatchedKeepsNilLabels(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	c.Put(domain.UnmatchedResult("no domain here"))

	got, ok := c.Get("no domain here")
	require.True(t, ok)
	assert.False(t, got.Matched)
	assert.Nil(t, got.Labels)
}

func TestResultCache_Eviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put(matched(t, "a.com", "a.com"))
	c.Put(matched(t, "b.com", "b.com"))
	c.Put(matched(t, "c.com", "c.com"))
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("a.com")
	assert.False(t, ok, "oldest entry should be evicted")

	_, _, evictions := c.Stats()
	assert.Equal(t, uint64(1), evictions)
}

func TestResultCache_Disabled(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	c.Put(matched(t, "example.com", "example.com"))
	_, ok := c.Get("example.com")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	hits, misses, evictions := c.Stats()
	assert.Zero(t, hits+misses+evictions)
}

func BenchmarkResultCache_Get(b *testing.B) {
	c, err := New(1024)
	if err != nil {
		b.Fatal(err)
	}
	res, _ := domain.NewMatchedResult("https://www.example.com/path", "www.example.com", "example.com")
	c.Put(res)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("https://www.example.com/path")
	}
}
