// Package memory provides a reference, in-process Handle implementation
// backed by a bounded LRU, for use as the fastest tier in a tiercache
// Manager and in the core's own tests. Concrete handle implementations
// are meant to be external collaborators, but every Manager needs at
// least one tier to be constructed against, and this one plugs
// hashicorp/golang-lru's storage and eviction policy in behind the
// Handle contract rather than hand-rolling an LRU list.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tiercache/tiercache"
	"github.com/tiercache/tiercache/stats"
)

// Handle is a bounded, thread-safe in-process cache tier.
type Handle[V any] struct {
	name string

	mu      sync.Mutex
	store   *lru.Cache[string, tiercache.CacheItem[V]]
	regions map[string]map[string]struct{} // region -> set of keys, kept in sync via the eviction callback

	defaultMode    tiercache.ExpirationMode
	defaultTimeout time.Duration

	counters   *stats.Counters
	versionSeq uint64
	disposed   atomic.Bool
}

// Config configures a memory Handle.
type Config struct {
	Capacity              int
	DefaultExpirationMode tiercache.ExpirationMode
	DefaultExpiration     time.Duration
}

// New builds a memory Handle named name with the given capacity (entries,
// across all regions combined) and default expiration policy.
func New[V any](name string, cfg Config) (*Handle[V], error) {
	h := &Handle[V]{
		name:           name,
		regions:        make(map[string]map[string]struct{}),
		defaultMode:    cfg.DefaultExpirationMode,
		defaultTimeout: cfg.DefaultExpiration,
		counters:       stats.New(),
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 10000
	}
	store, err := lru.NewWithEvict[string, tiercache.CacheItem[V]](capacity, func(compositeKey string, item tiercache.CacheItem[V]) {
		h.untrackRegion(item.Region, compositeKey)
	})
	if err != nil {
		return nil, err
	}
	h.store = store
	return h, nil
}

func compositeKey(key, region string) string { return region + "\x00" + key }

func (h *Handle[V]) trackRegion(region, compositeKey string) {
	set, ok := h.regions[region]
	if !ok {
		set = make(map[string]struct{})
		h.regions[region] = set
	}
	set[compositeKey] = struct{}{}
}

func (h *Handle[V]) untrackRegion(region, compositeKey string) {
	if set, ok := h.regions[region]; ok {
		delete(set, compositeKey)
		if len(set) == 0 {
			delete(h.regions, region)
		}
	}
}

func isExpired[V any](item tiercache.CacheItem[V], now time.Time) bool {
	switch item.ExpirationMode {
	case tiercache.ExpireAbsolute:
		return now.After(item.CreatedUTC.Add(item.ExpirationTimeout))
	case tiercache.ExpireSliding:
		return now.After(item.LastAccessedUTC.Add(item.ExpirationTimeout))
	default:
		return false
	}
}

func (h *Handle[V]) resolve(item tiercache.CacheItem[V]) (tiercache.CacheItem[V], error) {
	mode, timeout, err := tiercache.ResolveExpiration(item.ExpirationMode, item.ExpirationTimeout, h.defaultMode, h.defaultTimeout)
	if err != nil {
		return item, err
	}
	item.ExpirationMode, item.ExpirationTimeout = mode, timeout
	return item, nil
}

func (h *Handle[V]) checkDisposed() error {
	if h.disposed.Load() {
		return tiercache.ErrHandleDisposed
	}
	return nil
}

func (h *Handle[V]) Name() string { return h.name }

// Add inserts item only if (Key, Region) is absent or expired.
func (h *Handle[V]) Add(_ context.Context, item tiercache.CacheItem[V]) (bool, error) {
	if err := h.checkDisposed(); err != nil {
		return false, err
	}
	item, err := h.resolve(item)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ck := compositeKey(item.Key, item.Region)
	if existing, ok := h.store.Peek(ck); ok && !isExpired(existing, time.Now()) {
		h.counters.RecordAdd(item.Key, item.Region, false)
		return false, nil
	}

	h.versionSeq++
	item.Version = h.versionSeq
	h.store.Add(ck, item)
	h.trackRegion(item.Region, ck)
	h.counters.RecordAdd(item.Key, item.Region, true)
	return true, nil
}

// Put upserts item unconditionally, bumping its version.
func (h *Handle[V]) Put(_ context.Context, item tiercache.CacheItem[V]) error {
	if err := h.checkDisposed(); err != nil {
		return err
	}
	item, err := h.resolve(item)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ck := compositeKey(item.Key, item.Region)
	_, existed := h.store.Peek(ck)
	h.versionSeq++
	item.Version = h.versionSeq
	h.store.Add(ck, item)
	h.trackRegion(item.Region, ck)
	h.counters.RecordPut(item.Key, item.Region, !existed)
	return nil
}

// Get returns the stored item, refreshing a Sliding-expiration deadline on
// hit, or reports a miss for an absent or expired key.
func (h *Handle[V]) Get(_ context.Context, key, region string) (tiercache.CacheItem[V], bool, error) {
	var zero tiercache.CacheItem[V]
	if err := h.checkDisposed(); err != nil {
		return zero, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ck := compositeKey(key, region)
	item, ok := h.store.Get(ck)
	if !ok {
		h.counters.RecordGet(key, region, false)
		return zero, false, nil
	}
	if isExpired(item, time.Now()) {
		h.store.Remove(ck)
		h.counters.RecordGet(key, region, false)
		return zero, false, nil
	}
	if item.ExpirationMode == tiercache.ExpireSliding {
		item.LastAccessedUTC = time.Now().UTC()
		h.store.Add(ck, item)
	}
	h.counters.RecordGet(key, region, true)
	return item, true, nil
}

// Remove deletes (key, region) if present.
func (h *Handle[V]) Remove(_ context.Context, key, region string) (bool, error) {
	if err := h.checkDisposed(); err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ck := compositeKey(key, region)
	removed := h.store.Remove(ck)
	h.counters.RecordRemove(key, region, removed)
	return removed, nil
}

// Clear deletes every entry in every region.
func (h *Handle[V]) Clear(_ context.Context) error {
	if err := h.checkDisposed(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.store.Purge()
	h.regions = make(map[string]map[string]struct{})
	h.counters.RecordClear()
	return nil
}

// ClearRegion deletes every entry in region.
func (h *Handle[V]) ClearRegion(_ context.Context, region string) error {
	if err := h.checkDisposed(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for ck := range h.regions[region] {
		h.store.Remove(ck)
	}
	delete(h.regions, region)
	h.counters.RecordClearRegion(region)
	return nil
}

// Expire changes the expiration policy of an existing item in place; a
// missing item is a no-op.
func (h *Handle[V]) Expire(_ context.Context, key, region string, mode tiercache.ExpirationMode, timeout time.Duration) error {
	if err := h.checkDisposed(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ck := compositeKey(key, region)
	item, ok := h.store.Peek(ck)
	if !ok {
		return nil
	}
	item = item.WithExpiration(mode, timeout)
	h.store.Add(ck, item)
	return nil
}

// Update performs a local compare-and-swap loop, retrying up to maxRetries
// times when a concurrent writer changes the version between read and
// write.
func (h *Handle[V]) Update(_ context.Context, key, region string, fn tiercache.UpdateFunc[V], maxRetries int) (tiercache.UpdateResult[V], error) {
	if err := h.checkDisposed(); err != nil {
		return tiercache.UpdateResult[V]{}, err
	}
	ck := compositeKey(key, region)

	for attempt := 0; ; attempt++ {
		h.mu.Lock()
		current, ok := h.store.Peek(ck)
		if !ok || isExpired(current, time.Now()) {
			h.mu.Unlock()
			return tiercache.UpdateResult[V]{Outcome: tiercache.UpdateItemDidNotExist}, nil
		}
		readVersion := current.Version
		h.mu.Unlock()

		next, proceed := fn(current.Value)
		if !proceed {
			return tiercache.UpdateResult[V]{Outcome: tiercache.UpdateFactoryReturnedNil}, nil
		}

		h.mu.Lock()
		latest, ok := h.store.Peek(ck)
		if !ok || latest.Version != readVersion {
			h.mu.Unlock()
			if attempt >= maxRetries {
				return tiercache.UpdateResult[V]{Outcome: tiercache.UpdateTooManyRetries}, nil
			}
			continue
		}
		h.versionSeq++
		updated := latest.WithValue(next)
		updated.Version = h.versionSeq
		h.store.Add(ck, updated)
		h.mu.Unlock()
		return tiercache.UpdateResult[V]{Item: updated, Outcome: tiercache.UpdateSuccess}, nil
	}
}

// Count returns the number of items currently stored.
func (h *Handle[V]) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Len()
}

// Stats returns the handle's statistics snapshot in the core's
// library-agnostic shape.
func (h *Handle[V]) Stats() *tiercache.HandleStats {
	g := h.counters.Global()
	return &tiercache.HandleStats{
		Hits:             g.Hits(),
		Misses:           g.Misses(),
		Items:            uint64(h.Count()),
		GetCalls:         g.GetCalls(),
		PutCalls:         g.PutCalls(),
		AddCalls:         g.AddCalls(),
		RemoveCalls:      g.RemoveCalls(),
		ClearCalls:       g.ClearCalls(),
		ClearRegionCalls: g.ClearRegionCalls(),
	}
}

// RegionStats exposes the underlying per-region counters directly, for
// callers that want finer-grained statistics than the core Handle contract
// requires.
func (h *Handle[V]) RegionStats(region string) *stats.Counter { return h.counters.Region(region) }

// Dispose marks the handle unusable. The underlying LRU has no external
// resources to release.
func (h *Handle[V]) Dispose() error {
	h.disposed.Store(true)
	return nil
}
