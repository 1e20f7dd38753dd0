package tiercache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ManagerEventKind tags a ManagerEvent with the local operation that
// produced it.
type ManagerEventKind int

const (
	EventAdd ManagerEventKind = iota
	EventPut
	EventRemove
	EventUpdate
	EventClear
	EventClearRegion
)

// ManagerEvent is emitted on Manager.Events for callers who want to observe
// cache activity without implementing a Logger.
type ManagerEvent struct {
	Kind   ManagerEventKind
	Key    string
	Region string
}

// Manager orchestrates an ordered stack of Handle tiers, enforcing the
// update-mode policy and wiring backplane coherency. A Manager
// is built from already-constructed handles (concrete handle
// implementations are external collaborators); use package
// factory to construct handles and a Manager together from a
// ManagerConfig.
type Manager[V any] struct {
	handles    []Handle[V]
	sourceMask []bool // sourceMask[i] == handles[i] is a backplane source
	updateMode UpdateMode
	backplane  Backplane
	channel    string
	logger     Logger

	updateMu sync.Mutex
	disposed atomic.Bool

	id       string
	coalesce *singleflight.Group

	events chan ManagerEvent
}

// NewManager builds a Manager over handles, in the order given, according
// to cfg. handles[i] must correspond to cfg.Handles[i] (same order); the
// factory package is the typical caller. If cfg configures a backplane,
// bp must be non-nil and the manager subscribes to channel cfg.Backplane.ChannelName.
func NewManager[V any](cfg ManagerConfig, handles []Handle[V], bp Backplane, logger Logger) (*Manager[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(handles) != len(cfg.Handles) {
		return nil, NewConfigurationError("Manager", "handles matching cfg.Handles", nil)
	}
	if cfg.Backplane != nil && bp == nil {
		return nil, NewConfigurationError("Manager", "Backplane", nil)
	}
	if logger == nil {
		logger = NopLogger{}
	}

	mask := make([]bool, len(handles))
	channel := ""
	for i, hc := range cfg.Handles {
		mask[i] = hc.IsBackplaneSource
	}
	if cfg.Backplane != nil {
		channel = cfg.Backplane.ChannelName
		if channel == "" {
			channel = "tiercache"
		}
	}

	m := &Manager[V]{
		handles:    handles,
		sourceMask: mask,
		updateMode: cfg.UpdateMode,
		backplane:  bp,
		channel:    channel,
		logger:     logger,
		id:         uuid.NewString(),
		events:     make(chan ManagerEvent, 256),
	}
	if cfg.CoalesceFills {
		m.coalesce = &singleflight.Group{}
	}

	if bp != nil {
		if err := bp.Subscribe(context.Background(), channel, m.onBackplaneMessage); err != nil {
			return nil, configError(err, "subscribing to backplane channel "+channel)
		}
	}
	return m, nil
}

// Events returns a channel of local activity notifications. The channel is
// buffered and best-effort: when the buffer is full, the new event is
// dropped (with a warning logged) rather than blocking the operation that
// produced it.
func (m *Manager[V]) Events() <-chan ManagerEvent { return m.events }

func (m *Manager[V]) emit(ev ManagerEvent) {
	select {
	case m.events <- ev:
	default:
		m.logger.Warnf("tiercache: events channel full, dropping %v for %s/%s", ev.Kind, ev.Region, ev.Key)
	}
}

func (m *Manager[V]) checkDisposed() error {
	if m.disposed.Load() {
		return ErrManagerDisposed
	}
	return nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

// publish sends a best-effort backplane message tagged with this manager's
// sender id, after all handles have already been updated.
func (m *Manager[V]) publish(ctx context.Context, op BackplaneOp, key, region string) {
	if m.backplane == nil {
		return
	}
	msg := BackplaneMessage{SenderID: m.backplane.SenderID(), Op: op, Key: key, Region: region}
	if err := m.backplane.Publish(ctx, m.channel, msg); err != nil {
		m.logger.Warnf("tiercache: backplane publish failed for %s %s/%s: %v", op, region, key, err)
	}
}

// onBackplaneMessage applies the inverse local operation to every handle
// that is not itself a backplane source: the shared tier
// already observed the change, so only the faster local tiers need
// invalidating. This runs independent of the local update-mode policy,
// since that policy governs local write propagation, not remote
// invalidation.
func (m *Manager[V]) onBackplaneMessage(msg BackplaneMessage) {
	ctx := context.Background()
	switch msg.Op {
	case OpChanged, OpRemoved:
		for i, h := range m.handles {
			if m.sourceMask[i] {
				continue
			}
			if _, err := h.Remove(ctx, msg.Key, msg.Region); err != nil {
				m.logger.Warnf("tiercache: backplane-driven remove failed on handle %s: %v", h.Name(), err)
			}
		}
	case OpCleared:
		for i, h := range m.handles {
			if m.sourceMask[i] {
				continue
			}
			if err := h.Clear(ctx); err != nil {
				m.logger.Warnf("tiercache: backplane-driven clear failed on handle %s: %v", h.Name(), err)
			}
		}
	case OpClearedRegion:
		for i, h := range m.handles {
			if m.sourceMask[i] {
				continue
			}
			if err := h.ClearRegion(ctx, msg.Region); err != nil {
				m.logger.Warnf("tiercache: backplane-driven clear-region failed on handle %s: %v", h.Name(), err)
			}
		}
	}
}

// Add writes item through every handle in order and returns true iff the
// primary (first) handle reports the key was previously absent: in the
// coherent case every handle agrees, so this also reflects whether the
// logical entry was new.
func (m *Manager[V]) Add(ctx context.Context, item CacheItem[V]) (bool, error) {
	if err := m.checkDisposed(); err != nil {
		return false, err
	}
	if err := checkKey(item.Key); err != nil {
		return false, err
	}
	var wasNew bool
	for i, h := range m.handles {
		added, err := h.Add(ctx, item)
		if err != nil {
			return false, err
		}
		if i == 0 {
			wasNew = added
		}
	}
	m.emit(ManagerEvent{Kind: EventAdd, Key: item.Key, Region: item.Region})
	m.publish(ctx, OpChanged, item.Key, item.Region)
	return wasNew, nil
}

// Put writes item through every handle, inserting or overwriting as
// needed, and always succeeds.
func (m *Manager[V]) Put(ctx context.Context, item CacheItem[V]) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if err := checkKey(item.Key); err != nil {
		return err
	}
	for _, h := range m.handles {
		if err := h.Put(ctx, item); err != nil {
			return err
		}
	}
	m.emit(ManagerEvent{Kind: EventPut, Key: item.Key, Region: item.Region})
	m.publish(ctx, OpChanged, item.Key, item.Region)
	return nil
}

// Get returns the value for (key, region) and true, or the zero value and
// false. On a hit at tier i>0, the item is promoted into tiers 0..i-1
// (read-through fill) before returning, but only when the update-mode
// policy is Up or Full; under UpdateModeNone a deep hit is returned
// without being written back to shallower tiers.
func (m *Manager[V]) Get(ctx context.Context, key, region string) (V, bool, error) {
	item, ok, err := m.GetCacheItem(ctx, key, region)
	return item.Value, ok, err
}

// GetCacheItem is Get but returns the full CacheItem, including its
// expiration metadata and version.
func (m *Manager[V]) GetCacheItem(ctx context.Context, key, region string) (CacheItem[V], bool, error) {
	var zero CacheItem[V]
	if err := m.checkDisposed(); err != nil {
		return zero, false, err
	}
	if err := checkKey(key); err != nil {
		return zero, false, err
	}

	if m.coalesce != nil {
		coalesceKey := region + "\x00" + key
		v, err, _ := m.coalesce.Do(coalesceKey, func() (interface{}, error) {
			item, ok, err := m.getAndPromote(ctx, key, region)
			return cachedLookup[V]{item: item, ok: ok}, err
		})
		if err != nil {
			return zero, false, err
		}
		res := v.(cachedLookup[V])
		return res.item, res.ok, nil
	}
	return m.getAndPromote(ctx, key, region)
}

// cachedLookup carries a GetCacheItem result through singleflight, which
// only deals in interface{}.
type cachedLookup[V any] struct {
	item CacheItem[V]
	ok   bool
}

func (m *Manager[V]) getAndPromote(ctx context.Context, key, region string) (CacheItem[V], bool, error) {
	var zero CacheItem[V]
	for i, h := range m.handles {
		item, ok, err := h.Get(ctx, key, region)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			continue
		}
		if m.updateMode != UpdateModeNone {
			for j := 0; j < i; j++ {
				if _, err := m.handles[j].Add(ctx, item); err != nil {
					m.logger.Warnf("tiercache: promotion to handle %s failed: %v", m.handles[j].Name(), err)
				}
			}
		}
		return item, true, nil
	}
	return zero, false, nil
}

// Remove deletes (key, region) from every handle and returns true iff at
// least one handle actually removed it.
func (m *Manager[V]) Remove(ctx context.Context, key, region string) (bool, error) {
	if err := m.checkDisposed(); err != nil {
		return false, err
	}
	if err := checkKey(key); err != nil {
		return false, err
	}
	removedAny := false
	for _, h := range m.handles {
		removed, err := h.Remove(ctx, key, region)
		if err != nil {
			return false, err
		}
		removedAny = removedAny || removed
	}
	m.emit(ManagerEvent{Kind: EventRemove, Key: key, Region: region})
	m.publish(ctx, OpRemoved, key, region)
	return removedAny, nil
}

// Update performs a compare-and-swap against the most authoritative handle
// holding (key, region) — the last handle in the list, falling back to
// earlier handles if the last one doesn't have it — then propagates the
// result to earlier tiers per the update-mode policy.
func (m *Manager[V]) Update(ctx context.Context, key, region string, fn UpdateFunc[V], maxRetries int) (UpdateResult[V], error) {
	var zero UpdateResult[V]
	if err := m.checkDisposed(); err != nil {
		return zero, err
	}
	if err := checkKey(key); err != nil {
		return zero, err
	}
	if fn == nil {
		return zero, ErrNilUpdateFunc
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	authoritative := -1
	for i := len(m.handles) - 1; i >= 0; i-- {
		if _, ok, err := m.handles[i].Get(ctx, key, region); err != nil {
			return zero, err
		} else if ok {
			authoritative = i
			break
		}
	}
	if authoritative < 0 {
		return UpdateResult[V]{Outcome: UpdateItemDidNotExist}, nil
	}

	result, err := m.handles[authoritative].Update(ctx, key, region, fn, maxRetries)
	if err != nil {
		return zero, err
	}
	if result.Outcome != UpdateSuccess {
		return result, nil
	}

	switch m.updateMode {
	case UpdateModeUp:
		for j := 0; j < authoritative; j++ {
			if err := m.handles[j].Put(ctx, result.Item); err != nil {
				m.logger.Warnf("tiercache: update propagation to handle %s failed: %v", m.handles[j].Name(), err)
			}
		}
	case UpdateModeFull:
		for j := range m.handles {
			if j == authoritative {
				continue
			}
			if err := m.handles[j].Put(ctx, result.Item); err != nil {
				m.logger.Warnf("tiercache: update propagation to handle %s failed: %v", m.handles[j].Name(), err)
			}
		}
	}

	m.emit(ManagerEvent{Kind: EventUpdate, Key: key, Region: region})
	m.publish(ctx, OpChanged, key, region)
	return result, nil
}

// Expire changes the expiration policy of (key, region) in every handle
// that currently holds it; a handle missing the item is skipped.
func (m *Manager[V]) Expire(ctx context.Context, key, region string, mode ExpirationMode, timeout time.Duration) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	for _, h := range m.handles {
		item, ok, err := h.Get(ctx, key, region)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := h.Put(ctx, item.WithExpiration(mode, timeout)); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties every handle and publishes a Cleared message.
func (m *Manager[V]) Clear(ctx context.Context) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	for _, h := range m.handles {
		if err := h.Clear(ctx); err != nil {
			return err
		}
	}
	m.emit(ManagerEvent{Kind: EventClear})
	m.publish(ctx, OpCleared, "", "")
	return nil
}

// ClearRegion empties region in every handle and publishes a
// ClearedRegion message.
func (m *Manager[V]) ClearRegion(ctx context.Context, region string) error {
	if err := m.checkDisposed(); err != nil {
		return err
	}
	for _, h := range m.handles {
		if err := h.ClearRegion(ctx, region); err != nil {
			return err
		}
	}
	m.emit(ManagerEvent{Kind: EventClearRegion, Region: region})
	m.publish(ctx, OpClearedRegion, "", region)
	return nil
}

// GetOrAdd returns the existing item for (key, region), or builds one from
// factory, adds it, and returns it. factory is invoked at most once per
// call; under a concurrent race with another GetOrAdd/Add, the loser's
// built value is discarded in favor of whatever actually landed.
func (m *Manager[V]) GetOrAdd(ctx context.Context, key, region string, factory func() (V, ExpirationMode, time.Duration)) (CacheItem[V], error) {
	if item, ok, err := m.GetCacheItem(ctx, key, region); err != nil {
		return CacheItem[V]{}, err
	} else if ok {
		return item, nil
	}
	value, mode, timeout := factory()
	item := NewCacheItem(key, region, value, mode, timeout)
	added, err := m.Add(ctx, item)
	if err != nil {
		return CacheItem[V]{}, err
	}
	if added {
		return item, nil
	}
	if existing, ok, err := m.GetCacheItem(ctx, key, region); err != nil {
		return CacheItem[V]{}, err
	} else if ok {
		return existing, nil
	}
	return item, nil
}

// Dispose releases every handle and the backplane, in reverse construction
// order, and marks the manager so further operations return
// ErrManagerDisposed.
func (m *Manager[V]) Dispose() error {
	if !m.disposed.CompareAndSwap(false, true) {
		return nil
	}
	close(m.events)
	var firstErr error
	for i := len(m.handles) - 1; i >= 0; i-- {
		if err := m.handles[i].Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.backplane != nil {
		if err := m.backplane.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
