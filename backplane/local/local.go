// Package local provides an in-process Backplane implementation: a
// fan-out of channels shared by every Manager constructed against the
// same named Bus, for single-binary multi-manager tests and for
// processes that run several managers over the same logical cache
// without a real message broker. It is the reference transport the
// redis package's tests are checked against for behavioral parity.
package local

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tiercache/tiercache"
)

// Bus is a shared, in-process message fabric. Every Backplane created
// with the same Bus observes every other's Publish calls.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscriber
}

type subscriber struct {
	senderID string
	handler  tiercache.BackplaneHandler
}

// NewBus returns an empty, ready-to-use Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Backplane is a Bus-backed tiercache.Backplane. Publish is synchronous and
// fans out to every other subscriber on the same channel within the same
// Bus; the publishing Backplane's own handler never receives its own
// message, matching the loopback-suppression every Backplane
// implementation must provide.
type Backplane struct {
	bus      *Bus
	senderID string

	mu      sync.Mutex
	closed  bool
	channel string
}

// New returns a Backplane attached to bus, with a fresh random sender ID.
func New(bus *Bus) *Backplane {
	return &Backplane{bus: bus, senderID: uuid.NewString()}
}

func (b *Backplane) SenderID() string { return b.senderID }

// Publish delivers msg to every subscriber on channel within the shared
// Bus except this Backplane's own handler.
func (b *Backplane) Publish(_ context.Context, channel string, msg tiercache.BackplaneMessage) error {
	b.bus.mu.RLock()
	subs := append([]subscriber(nil), b.bus.subs[channel]...)
	b.bus.mu.RUnlock()

	for _, s := range subs {
		if s.senderID == b.senderID {
			continue
		}
		s.handler(msg)
	}
	return nil
}

// Subscribe registers handler to receive every message published to
// channel by a different sender sharing this Bus.
func (b *Backplane) Subscribe(_ context.Context, channel string, handler tiercache.BackplaneHandler) error {
	b.mu.Lock()
	b.channel = channel
	b.mu.Unlock()

	b.bus.mu.Lock()
	defer b.bus.mu.Unlock()
	b.bus.subs[channel] = append(b.bus.subs[channel], subscriber{senderID: b.senderID, handler: handler})
	return nil
}

// Close detaches this Backplane's subscription from the Bus.
func (b *Backplane) Close() error {
	b.mu.Lock()
	channel := b.channel
	b.closed = true
	b.mu.Unlock()

	if channel == "" {
		return nil
	}

	b.bus.mu.Lock()
	defer b.bus.mu.Unlock()
	subs := b.bus.subs[channel]
	out := subs[:0]
	for _, s := range subs {
		if s.senderID != b.senderID {
			out = append(out, s)
		}
	}
	b.bus.subs[channel] = out
	return nil
}
