// Package stats implements per-handle, per-region cache statistics. The
// purely additive counters (hits, misses, and per-operation call counts)
// are sharded across a fixed number of independently-allocated words and
// bumped through a hash of (key, region), the same false-sharing-avoidance
// idiom a striped atomic counter uses: concurrent increments from different
// keys land on different words instead of contending on one cache line.
// Item counts, which can both increase and decrease, stay single-word —
// sharding a counter that must never go negative would let one shard's
// clamp-at-zero logic under-count while another shard still holds credit.
// Region counters are created lazily under a short mutex on first
// reference.
package stats

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/tiercache/tiercache/internal/keyhash"
)

// shardCount is the number of independently-allocated words each additive
// counter is striped across.
const shardCount = 16

// stripedCounter is a monotonically-increasing counter split across
// shardCount separately-allocated uint64s, so concurrent Add calls hashing
// to different shards don't share a cache line.
type stripedCounter struct {
	shards [shardCount]*uint64
}

func newStripedCounter() *stripedCounter {
	s := &stripedCounter{}
	for i := range s.shards {
		s.shards[i] = new(uint64)
	}
	return s
}

func (s *stripedCounter) add(shard int, delta uint64) {
	atomic.AddUint64(s.shards[shard%shardCount], delta)
}

func (s *stripedCounter) sum() uint64 {
	var total uint64
	for _, p := range s.shards {
		total += atomic.LoadUint64(p)
	}
	return total
}

func (s *stripedCounter) reset() {
	for _, p := range s.shards {
		atomic.StoreUint64(p, 0)
	}
}

// shardFor picks the stripe a (key, region) pair hashes into.
func shardFor(key, region string) int {
	return keyhash.Shard(keyhash.Identity(key, region), shardCount)
}

// Counter is one region's (or the handle-global) set of counters.
type Counter struct {
	hits             *stripedCounter
	misses           *stripedCounter
	getCalls         *stripedCounter
	putCalls         *stripedCounter
	addCalls         *stripedCounter
	removeCalls      *stripedCounter
	items            uint64
	clearCalls       uint64
	clearRegionCalls uint64
}

func newCounter() *Counter {
	return &Counter{
		hits:        newStripedCounter(),
		misses:      newStripedCounter(),
		getCalls:    newStripedCounter(),
		putCalls:    newStripedCounter(),
		addCalls:    newStripedCounter(),
		removeCalls: newStripedCounter(),
	}
}

func (c *Counter) Hits() uint64             { return c.hits.sum() }
func (c *Counter) Misses() uint64           { return c.misses.sum() }
func (c *Counter) Items() uint64            { return atomic.LoadUint64(&c.items) }
func (c *Counter) GetCalls() uint64         { return c.getCalls.sum() }
func (c *Counter) PutCalls() uint64         { return c.putCalls.sum() }
func (c *Counter) AddCalls() uint64         { return c.addCalls.sum() }
func (c *Counter) RemoveCalls() uint64      { return c.removeCalls.sum() }
func (c *Counter) ClearCalls() uint64       { return atomic.LoadUint64(&c.clearCalls) }
func (c *Counter) ClearRegionCalls() uint64 { return atomic.LoadUint64(&c.clearRegionCalls) }

// Ratio returns Hits / (Hits + Misses), or 0 if there have been no Gets.
func (c *Counter) Ratio() float64 {
	hits, misses := c.Hits(), c.Misses()
	if hits == 0 && misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func (c *Counter) String() string {
	return fmt.Sprintf(
		"hits=%s misses=%s items=%s hit-ratio=%.2f gets=%s puts=%s adds=%s removes=%s",
		humanize.Comma(int64(c.Hits())), humanize.Comma(int64(c.Misses())), humanize.Comma(int64(c.Items())),
		c.Ratio(), humanize.Comma(int64(c.GetCalls())), humanize.Comma(int64(c.PutCalls())),
		humanize.Comma(int64(c.AddCalls())), humanize.Comma(int64(c.RemoveCalls())),
	)
}

func (c *Counter) reset() {
	c.hits.reset()
	c.misses.reset()
	c.getCalls.reset()
	c.putCalls.reset()
	c.addCalls.reset()
	c.removeCalls.reset()
	atomic.StoreUint64(&c.items, 0)
	atomic.StoreUint64(&c.clearCalls, 0)
	atomic.StoreUint64(&c.clearRegionCalls, 0)
}

// Counters holds one handle's global counter plus a lazily-populated set
// of per-region counters. Global and the counter values themselves are
// read without locking; Region and Regions take a short mutex, under which
// Region creates a region's counter on first reference.
type Counters struct {
	global *Counter

	mu      sync.Mutex
	regions map[string]*Counter
}

// New returns an empty Counters.
func New() *Counters {
	return &Counters{global: newCounter(), regions: make(map[string]*Counter)}
}

// Global returns the handle-wide counter, aggregating across all regions.
func (s *Counters) Global() *Counter { return s.global }

// Region returns the counter for region, creating it under a short mutex
// if this is the first reference.
func (s *Counters) Region(region string) *Counter {
	s.mu.Lock()
	c, ok := s.regions[region]
	if !ok {
		c = newCounter()
		s.regions[region] = c
	}
	s.mu.Unlock()
	return c
}

// Regions returns a snapshot of all region names currently tracked.
func (s *Counters) Regions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.regions))
	for name := range s.regions {
		names = append(names, name)
	}
	return names
}

// recordBoth bumps both the global and per-region counters for op.
func (s *Counters) recordBoth(region string, op func(*Counter)) {
	op(s.global)
	op(s.Region(region))
}

func (s *Counters) RecordGet(key, region string, hit bool) {
	shard := shardFor(key, region)
	s.recordBoth(region, func(c *Counter) {
		c.getCalls.add(shard, 1)
		if hit {
			c.hits.add(shard, 1)
		} else {
			c.misses.add(shard, 1)
		}
	})
}

func (s *Counters) RecordPut(key, region string, isNewItem bool) {
	shard := shardFor(key, region)
	s.recordBoth(region, func(c *Counter) {
		c.putCalls.add(shard, 1)
		if isNewItem {
			atomic.AddUint64(&c.items, 1)
		}
	})
}

func (s *Counters) RecordAdd(key, region string, added bool) {
	shard := shardFor(key, region)
	s.recordBoth(region, func(c *Counter) {
		c.addCalls.add(shard, 1)
		if added {
			atomic.AddUint64(&c.items, 1)
		}
	})
}

func (s *Counters) RecordRemove(key, region string, removed bool) {
	shard := shardFor(key, region)
	s.recordBoth(region, func(c *Counter) {
		c.removeCalls.add(shard, 1)
		if removed {
			addSignedUint64(&c.items, -1)
		}
	})
}

func (s *Counters) RecordClear() {
	atomic.AddUint64(&s.global.clearCalls, 1)
	atomic.StoreUint64(&s.global.items, 0)
}

func (s *Counters) RecordClearRegion(region string) {
	s.recordBoth(region, func(c *Counter) {
		atomic.AddUint64(&c.clearRegionCalls, 1)
		atomic.StoreUint64(&c.items, 0)
	})
}

// addSignedUint64 decrements an unsigned counter without underflowing past
// zero, since Remove can race with concurrent item-count bookkeeping.
func addSignedUint64(addr *uint64, delta int64) {
	for {
		cur := atomic.LoadUint64(addr)
		next := int64(cur) + delta
		if next < 0 {
			next = 0
		}
		if atomic.CompareAndSwapUint64(addr, cur, uint64(next)) {
			return
		}
	}
}
