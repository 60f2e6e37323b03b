package embedcache

import (
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// memoryTier is the in-process half of the cache.
type memoryTier interface {
	get(text string) ([]float32, bool)
	set(text string, vec []float32)
	close()
}

// boundedTier evicts by ristretto's TinyLFU policy once maxEntries is reached.
type boundedTier struct {
	cache *ristretto.Cache[string, []float32]
}

func newBoundedTier(maxEntries int64) (*boundedTier, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &boundedTier{cache: cache}, nil
}

func (t *boundedTier) get(text string) ([]float32, bool) {
	return t.cache.Get(text)
}

func (t *boundedTier) set(text string, vec []float32) {
	t.cache.Set(text, vec, 1)
	// Sets are buffered; wait so the next lookup observes this one.
	t.cache.Wait()
}

func (t *boundedTier) close() {
	t.cache.Close()
}

// mapTier never evicts.
type mapTier struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

func newMapTier() *mapTier {
	return &mapTier{entries: make(map[string][]float32)}
}

func (t *mapTier) get(text string) ([]float32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	vec, ok := t.entries[text]
	return vec, ok
}

func (t *mapTier) set(text string, vec []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[text] = vec
}

func (t *mapTier) close() {}
