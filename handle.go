package tiercache

import (
	"context"
	"time"
)

// UpdateOutcome enumerates the possible results of a compare-and-swap
// Update.
type UpdateOutcome int

const (
	// UpdateSuccess means the write committed; NewValue holds the result.
	UpdateSuccess UpdateOutcome = iota
	// UpdateFactoryReturnedNil means the update function declined to write.
	UpdateFactoryReturnedNil
	// UpdateItemDidNotExist means there was nothing to update.
	UpdateItemDidNotExist
	// UpdateTooManyRetries means the CAS loop exhausted its retry budget.
	UpdateTooManyRetries
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateSuccess:
		return "Success"
	case UpdateFactoryReturnedNil:
		return "FactoryReturnedNull"
	case UpdateItemDidNotExist:
		return "ItemDidNotExist"
	case UpdateTooManyRetries:
		return "TooManyRetries"
	default:
		return "Unknown"
	}
}

// UpdateResult is returned by Manager.Update and Handle.Update.
type UpdateResult[V any] struct {
	Item    CacheItem[V]
	Outcome UpdateOutcome
}

// UpdateFunc computes a new value from the current one. Returning ok=false
// abandons the update without a write.
type UpdateFunc[V any] func(current V) (next V, ok bool)

// Handle is the uniform contract every backing store must satisfy.
// Concrete handle implementations (an in-memory map, a distributed
// KV client, a system-memory cache) are external collaborators; the core
// only depends on this interface. Every method must be safe for concurrent
// use by multiple goroutines.
type Handle[V any] interface {
	// Name is the handle's configured name, unique within a manager.
	Name() string

	// Add inserts item only if (Key, Region) is absent. Returns true iff
	// inserted.
	Add(ctx context.Context, item CacheItem[V]) (bool, error)
	// Put upserts item unconditionally.
	Put(ctx context.Context, item CacheItem[V]) error
	// Get returns the stored item and true, or the zero value and false if
	// absent or expired. A Sliding-expiration hit refreshes the deadline as
	// part of this call.
	Get(ctx context.Context, key, region string) (CacheItem[V], bool, error)
	// Remove deletes (key, region). Returns true iff something was removed.
	Remove(ctx context.Context, key, region string) (bool, error)
	// Clear deletes every entry in every region.
	Clear(ctx context.Context) error
	// ClearRegion deletes every entry in the given region.
	ClearRegion(ctx context.Context, region string) error
	// Expire changes the expiration policy of an existing item in place. A
	// missing item is a no-op, not an error.
	Expire(ctx context.Context, key, region string, mode ExpirationMode, timeout time.Duration) error
	// Update performs a local compare-and-swap loop: read the current
	// item's version, invoke fn, and write back only if the stored version
	// still matches what was read, retrying up to maxRetries times on
	// conflict.
	Update(ctx context.Context, key, region string, fn UpdateFunc[V], maxRetries int) (UpdateResult[V], error)
	// Count returns the current number of stored items.
	Count() int
	// Stats returns this handle's statistics counters.
	Stats() *HandleStats
	// Dispose releases any resources held by the handle. Further calls to
	// any other method that returns an error must return ErrHandleDisposed.
	Dispose() error
}

// HandleStats is the minimal, library-agnostic statistics surface a Handle
// exposes to the manager and to callers; concrete counters live in the
// stats subpackage and are embedded by handle implementations.
type HandleStats struct {
	Hits             uint64
	Misses           uint64
	Items            uint64
	GetCalls         uint64
	PutCalls         uint64
	AddCalls         uint64
	RemoveCalls      uint64
	ClearCalls       uint64
	ClearRegionCalls uint64
}
