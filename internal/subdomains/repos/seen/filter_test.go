package seen

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_TestAndAdd(t *testing.T) {
	f := New(128, 0.01)

	assert.False(t, f.TestAndAdd("example.com"), "first sighting")
	assert.True(t, f.TestAndAdd("example.com"), "second sighting")
	assert.False(t, f.TestAndAdd("example.org"))
}

func TestFilter_Defaults(t *testing.T) {
	f := New(0, 0)
	m, k := f.Params()
	assert.NotZero(t, m)
	assert.NotZero(t, k)

	assert.False(t, f.TestAndAdd("default-case.test"))
	assert.True(t, f.TestAndAdd("default-case.test"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	f := New(1000, 0.001)
	for i := 0; i < 100; i++ {
		f.TestAndAdd(fmt.Sprintf("d%03d.example.com", i))
	}
	got := f.EstimatedCount()
	assert.InDelta(t, 100, got, 5)
}

func TestFilter_ConcurrentUse(t *testing.T) {
	f := New(1024, 0.01)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				f.TestAndAdd(fmt.Sprintf("w%d-%d.example.com", id, i%50))
				_ = f.EstimatedCount()
			}
		}(w)
	}
	wg.Wait()
	assert.True(t, f.TestAndAdd("w0-0.example.com"))
}

func BenchmarkFilter_TestAndAdd(b *testing.B) {
	f := New(100_000, 0.001)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("d%04d.bench.test", i)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.TestAndAdd(keys[i%len(keys)])
	}
}
