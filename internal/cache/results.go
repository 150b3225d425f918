package cache

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/clauseguard/clauseguard/internal/model"
)

const (
	// DefaultCapacity is the normal retention limit of the result cache
	DefaultCapacity = 100
	// ReducedCapacity is the retention limit under storage pressure
	ReducedCapacity = 50
	// DefaultPressureThreshold is the storage usage ratio above which
	// capacity checks tighten retention
	DefaultPressureThreshold = 0.8
)

// UsageProbe reports the storage usage ratio in [0, 1]. Supplied by the
// environment; the cache only consumes it.
type UsageProbe func() float64

// ResultCache is the bounded, fingerprint-keyed store of analysis
// results. Retention keeps the most-recently-extracted entries ordered
// by Fragment.ExtractedAt; a capacity check under storage pressure
// tightens the limit. Lookups and eviction are mutually exclusive under
// a single-writer discipline: Get runs under a read lock, Put and
// eviction under the write lock.
type ResultCache struct {
	mu       sync.RWMutex
	entries  map[string]*model.AnalysisResult
	capacity int
	reduced  int
	pressure float64
	probe    UsageProbe
	store    Store // optional persistence backend, nil for memory-only
}

// NewResultCache creates a result cache. probe and store may be nil.
func NewResultCache(capacity, reduced int, pressure float64, probe UsageProbe, store Store) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if reduced <= 0 || reduced > capacity {
		reduced = ReducedCapacity
	}
	if pressure <= 0 {
		pressure = DefaultPressureThreshold
	}
	return &ResultCache{
		entries:  make(map[string]*model.AnalysisResult),
		capacity: capacity,
		reduced:  reduced,
		pressure: pressure,
		probe:    probe,
		store:    store,
	}
}

// Get returns the cached result for a fingerprint, if any. Falls back to
// the persistence backend on a memory miss.
func (c *ResultCache) Get(fp model.Fingerprint) (*model.AnalysisResult, bool) {
	key := fp.Key()

	c.mu.RLock()
	res, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return res, true
	}
	if c.store == nil {
		return nil, false
	}

	data, found := c.store.Get(StoreKey(fp))
	if !found {
		return nil, false
	}
	var loaded model.AnalysisResult
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.entries[key]; ok {
		return res, true
	}
	c.entries[key] = &loaded
	c.trimLocked(c.capacity)
	return &loaded, true
}

// Put stores a result under its fingerprint, replacing any previous
// entry, and trims retention to capacity
func (c *ResultCache) Put(fp model.Fingerprint, res *model.AnalysisResult) {
	c.mu.Lock()
	c.entries[fp.Key()] = res
	c.trimLocked(c.capacity)
	c.mu.Unlock()

	if c.store != nil {
		if data, err := json.Marshal(res); err == nil {
			_ = c.store.Set(StoreKey(fp), data, 0)
		}
	}
}

// Remove deletes the entry for a fingerprint
func (c *ResultCache) Remove(fp model.Fingerprint) {
	c.mu.Lock()
	delete(c.entries, fp.Key())
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Delete(StoreKey(fp))
	}
}

// Clear removes all entries
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*model.AnalysisResult)
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Clear()
	}
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// UsageRatio reports the storage usage ratio: the environment probe when
// one is supplied, else the cache's own fill ratio
func (c *ResultCache) UsageRatio() float64 {
	if c.probe != nil {
		return c.probe()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return float64(len(c.entries)) / float64(c.capacity)
}

// EvictIfOverCapacity runs a capacity check and returns the number of
// evicted entries. Under storage pressure (probe above the threshold)
// retention tightens to the reduced limit.
func (c *ResultCache) EvictIfOverCapacity() int {
	limit := c.capacity
	if c.probe != nil && c.probe() > c.pressure {
		limit = c.reduced
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trimLocked(limit)
}

// trimLocked retains the limit most-recently-extracted entries. Caller
// holds the write lock.
func (c *ResultCache) trimLocked(limit int) int {
	if len(c.entries) <= limit {
		return 0
	}

	type keyed struct {
		key string
		res *model.AnalysisResult
	}
	ordered := make([]keyed, 0, len(c.entries))
	for k, r := range c.entries {
		ordered = append(ordered, keyed{k, r})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].res.Fragment.ExtractedAt.After(ordered[j].res.Fragment.ExtractedAt)
	})

	evicted := 0
	for _, e := range ordered[limit:] {
		delete(c.entries, e.key)
		if c.store != nil {
			_ = c.store.Delete(StoreKey(e.res.Fragment.Fingerprint()))
		}
		evicted++
	}
	return evicted
}
