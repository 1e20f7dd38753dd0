package tiercache

import "time"

// Builder accepts a declarative description of a cache topology and
// produces a ManagerConfig. It is stateful and fluent rather than a set
// of independent functional options, since cache topologies naturally
// nest ("this handle gets this expiration default").
type Builder struct {
	cfg          ManagerConfig
	currentIndex int
}

// NewBuilder starts a fresh configuration builder.
func NewBuilder() *Builder {
	return &Builder{currentIndex: -1}
}

// WithHandle appends a handle of the given type and name. Pass
// isBackplaneSource=true for the handle(s) that should originate/receive
// backplane coherency messages.
func (b *Builder) WithHandle(handleType, name string, isBackplaneSource bool) *Builder {
	b.cfg.Handles = append(b.cfg.Handles, HandleConfig{
		Type:              handleType,
		Name:              name,
		IsBackplaneSource: isBackplaneSource,
	})
	b.currentIndex = len(b.cfg.Handles) - 1
	return b
}

// WithExpiration sets the default expiration policy on the most recently
// added handle.
func (b *Builder) WithExpiration(mode ExpirationMode, timeout time.Duration) *Builder {
	if b.currentIndex < 0 {
		return b
	}
	b.cfg.Handles[b.currentIndex].DefaultExpirationMode = mode
	b.cfg.Handles[b.currentIndex].DefaultExpirationTimeout = timeout
	return b
}

// WithStatistics toggles statistics collection on the most recently added
// handle.
func (b *Builder) WithStatistics(enabled bool) *Builder {
	if b.currentIndex < 0 {
		return b
	}
	b.cfg.Handles[b.currentIndex].EnableStatistics = enabled
	return b
}

// WithHandleOptions attaches handle-type-specific options to the most
// recently added handle.
func (b *Builder) WithHandleOptions(options map[string]interface{}) *Builder {
	if b.currentIndex < 0 {
		return b
	}
	b.cfg.Handles[b.currentIndex].Options = options
	return b
}

// WithUpdateMode selects None/Up/Full propagation on writes.
func (b *Builder) WithUpdateMode(mode UpdateMode) *Builder {
	b.cfg.UpdateMode = mode
	return b
}

// WithBackplane attaches a backplane type and optional channel name.
func (b *Builder) WithBackplane(backplaneType, channelName string) *Builder {
	b.cfg.Backplane = &BackplaneConfig{Type: backplaneType, ChannelName: channelName}
	return b
}

// WithBackplaneOptions attaches transport-specific options to the
// configured backplane.
func (b *Builder) WithBackplaneOptions(options map[string]interface{}) *Builder {
	if b.cfg.Backplane == nil {
		return b
	}
	b.cfg.Backplane.Options = options
	return b
}

// WithSerializer attaches a serializer type for handles that need bytes.
func (b *Builder) WithSerializer(serializerType string) *Builder {
	b.cfg.Serializer = &SerializerConfig{Type: serializerType}
	return b
}

// WithLoggerFactory selects a named logger factory (resolved by the
// factory registry, see package factory).
func (b *Builder) WithLoggerFactory(name string) *Builder {
	b.cfg.LoggerFactory = name
	return b
}

// WithSingleflight enables request coalescing around Manager.Get's
// read-through fill.
func (b *Builder) WithSingleflight(enabled bool) *Builder {
	b.cfg.CoalesceFills = enabled
	return b
}

// Build validates and returns the assembled ManagerConfig.
func (b *Builder) Build() (ManagerConfig, error) {
	if err := b.cfg.Validate(); err != nil {
		return ManagerConfig{}, err
	}
	return b.cfg, nil
}
