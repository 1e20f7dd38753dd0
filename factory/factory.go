// Package factory builds a tiercache.Manager from a tiercache.ManagerConfig
// by explicit, typed construction — no reflection — resolving each
// HandleConfig.Type and BackplaneConfig.Type against constructors
// registered by the caller, wiring logger, backplane, and handles in
// declared order. Go generics make a single global registry impossible
// across different value types V, so callers build a Registry[V] for the
// concrete cache-value type they need.
package factory

import (
	"context"

	"github.com/tiercache/tiercache"
)

// HandleConstructor builds a Handle[V] from its declarative configuration
// and the manager's resolved serializer, which is nil when no
// SerializerConfig is configured. Handles that keep values in-process
// (an LRU map) have no use for it; handles that can only store bytes (a
// remote store, a disk-backed tier) use it to convert V to and from the
// wire.
type HandleConstructor[V any] func(ctx context.Context, cfg tiercache.HandleConfig, ser tiercache.Serializer[V]) (tiercache.Handle[V], error)

// BackplaneConstructor builds a Backplane from its declarative
// configuration. Backplane construction doesn't depend on V, since a
// Backplane only ever carries (key, region, op) messages.
type BackplaneConstructor func(ctx context.Context, cfg tiercache.BackplaneConfig) (tiercache.Backplane, error)

// SerializerConstructor builds a Serializer[V] from its declarative
// configuration.
type SerializerConstructor[V any] func(cfg tiercache.SerializerConfig) (tiercache.Serializer[V], error)

// Registry holds the constructors available to Build for one cache-value
// type V.
type Registry[V any] struct {
	handles     map[string]HandleConstructor[V]
	backplanes  map[string]BackplaneConstructor
	serializers map[string]SerializerConstructor[V]
	loggers     map[string]tiercache.LoggerFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{
		handles:     make(map[string]HandleConstructor[V]),
		backplanes:  make(map[string]BackplaneConstructor),
		serializers: make(map[string]SerializerConstructor[V]),
		loggers:     make(map[string]tiercache.LoggerFactory),
	}
}

// RegisterHandle associates handleType with a constructor.
func (r *Registry[V]) RegisterHandle(handleType string, ctor HandleConstructor[V]) *Registry[V] {
	r.handles[handleType] = ctor
	return r
}

// RegisterBackplane associates backplaneType with a constructor.
func (r *Registry[V]) RegisterBackplane(backplaneType string, ctor BackplaneConstructor) *Registry[V] {
	r.backplanes[backplaneType] = ctor
	return r
}

// RegisterSerializer associates serializerType (ManagerConfig.Serializer.Type)
// with a constructor.
func (r *Registry[V]) RegisterSerializer(serializerType string, ctor SerializerConstructor[V]) *Registry[V] {
	r.serializers[serializerType] = ctor
	return r
}

// RegisterLoggerFactory associates a name (ManagerConfig.LoggerFactory)
// with a tiercache.LoggerFactory.
func (r *Registry[V]) RegisterLoggerFactory(name string, lf tiercache.LoggerFactory) *Registry[V] {
	r.loggers[name] = lf
	return r
}

// Build constructs the optional serializer, the optional backplane, and
// every configured handle, in that order, then assembles a Manager from
// them. Handle construction order is the Manager's tier order: index 0 is
// the fastest/shallowest tier.
func (r *Registry[V]) Build(ctx context.Context, cfg tiercache.ManagerConfig) (*tiercache.Manager[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var logger tiercache.Logger
	if cfg.LoggerFactory != "" {
		lf, ok := r.loggers[cfg.LoggerFactory]
		if !ok {
			return nil, tiercache.NewConfigurationError("Registry", "loggerFactory:"+cfg.LoggerFactory, nil)
		}
		logger = lf("manager")
	}

	var ser tiercache.Serializer[V]
	if cfg.Serializer != nil {
		ctor, ok := r.serializers[cfg.Serializer.Type]
		if !ok {
			return nil, tiercache.NewConfigurationError("Registry", "serializer:"+cfg.Serializer.Type, nil)
		}
		built, err := ctor(*cfg.Serializer)
		if err != nil {
			return nil, err
		}
		ser = built
	}

	var bp tiercache.Backplane
	if cfg.Backplane != nil {
		ctor, ok := r.backplanes[cfg.Backplane.Type]
		if !ok {
			return nil, tiercache.NewConfigurationError("Registry", "backplane:"+cfg.Backplane.Type, nil)
		}
		built, err := ctor(ctx, *cfg.Backplane)
		if err != nil {
			return nil, err
		}
		bp = built
	}

	handles := make([]tiercache.Handle[V], 0, len(cfg.Handles))
	for _, hc := range cfg.Handles {
		ctor, ok := r.handles[hc.Type]
		if !ok {
			return nil, tiercache.NewConfigurationError("Registry", "handle:"+hc.Type, nil)
		}
		h, err := ctor(ctx, hc, ser)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	return tiercache.NewManager[V](cfg, handles, bp, logger)
}
