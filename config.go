package tiercache

import "time"

// UpdateMode selects how a successful write propagates to earlier,
// shallower tiers.
type UpdateMode int

const (
	// UpdateModeNone leaves earlier tiers untouched; they re-fill lazily on
	// their next read miss.
	UpdateModeNone UpdateMode = iota
	// UpdateModeUp writes the new value into every tier shallower than the
	// one that actually performed the write.
	UpdateModeUp
	// UpdateModeFull writes the new value into every tier, regardless of
	// which tier originated the change.
	UpdateModeFull
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateModeNone:
		return "None"
	case UpdateModeUp:
		return "Up"
	case UpdateModeFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// HandleConfig declaratively describes one tier.
type HandleConfig struct {
	// Name must be unique within a ManagerConfig.
	Name string `yaml:"name"`
	// Type is an opaque identifier the factory/registry resolves to a
	// concrete Handle constructor, e.g. "memory" or "redis".
	Type string `yaml:"type"`
	// IsBackplaneSource marks this handle as the shared authority whose
	// changes are broadcast; exactly the handles so marked originate or
	// receive backplane coherency messages.
	IsBackplaneSource bool `yaml:"isBackplaneSource"`
	// DefaultExpirationMode and DefaultExpirationTimeout are the handle's
	// fallback policy, used when an item specifies ExpireDefault and has no
	// handle-level override.
	DefaultExpirationMode    ExpirationMode `yaml:"defaultExpirationMode"`
	DefaultExpirationTimeout time.Duration  `yaml:"defaultExpirationTimeout"`
	// EnableStatistics toggles per-handle, per-region counters.
	EnableStatistics bool `yaml:"enableStatistics"`
	// Options carries handle-type-specific settings (e.g. redis address,
	// LRU capacity) as an opaque map the matching factory constructor reads.
	Options map[string]interface{} `yaml:"options"`
}

// BackplaneConfig declaratively describes the coherency channel.
type BackplaneConfig struct {
	// Type is resolved by the factory registry, e.g. "local" or "redis".
	Type string `yaml:"type"`
	// ChannelName is the transport address the backplane publishes to and
	// subscribes on. If empty, NewManager uses "tiercache".
	ChannelName string                 `yaml:"channelName"`
	Options     map[string]interface{} `yaml:"options"`
}

// SerializerConfig declaratively describes the pluggable byte encoder/
// decoder used by handles that require bytes.
type SerializerConfig struct {
	Type    string                 `yaml:"type"`
	Options map[string]interface{} `yaml:"options"`
}

// ManagerConfig is the declarative description of a Manager: an
// ordered list of handles, the update-mode policy, and optional
// backplane/serializer/logger attachments. Handle order is fixed for the
// lifetime of any Manager built from this configuration.
type ManagerConfig struct {
	Handles       []HandleConfig    `yaml:"handles"`
	UpdateMode    UpdateMode        `yaml:"updateMode"`
	Backplane     *BackplaneConfig  `yaml:"backplane,omitempty"`
	Serializer    *SerializerConfig `yaml:"serializer,omitempty"`
	LoggerFactory string            `yaml:"loggerFactory,omitempty"`
	// CoalesceFills enables singleflight-based request coalescing around
	// Manager.Get's read-through fill, so concurrent misses for the same
	// cold key trigger one fill instead of N.
	CoalesceFills bool `yaml:"coalesceFills"`
}

// Validate checks the structural invariants of a topology: at least one
// handle, unique handle names, and — if a backplane is configured — at
// least one backplane-source handle.
func (c ManagerConfig) Validate() error {
	if len(c.Handles) == 0 {
		return ErrNoHandles
	}
	seen := make(map[string]struct{}, len(c.Handles))
	hasSource := false
	for _, h := range c.Handles {
		if _, dup := seen[h.Name]; dup {
			return configError(ErrDuplicateHandleName, h.Name)
		}
		seen[h.Name] = struct{}{}
		if h.IsBackplaneSource {
			hasSource = true
		}
	}
	if c.Backplane != nil && !hasSource {
		return ErrBackplaneNeedsSource
	}
	return nil
}
