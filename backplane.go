package tiercache

import "context"

// BackplaneOp identifies the kind of coherency message carried over a
// backplane.
type BackplaneOp int

const (
	OpChanged BackplaneOp = iota
	OpRemoved
	OpCleared
	OpClearedRegion
)

func (o BackplaneOp) String() string {
	switch o {
	case OpChanged:
		return "Changed"
	case OpRemoved:
		return "Removed"
	case OpCleared:
		return "Cleared"
	case OpClearedRegion:
		return "ClearedRegion"
	default:
		return "Unknown"
	}
}

// BackplaneMessage is the wire tuple: (senderId, op, key?, region?). The
// channel name is part of the transport address, not the payload, so it
// is not a field here.
type BackplaneMessage struct {
	SenderID string
	Op       BackplaneOp
	Key      string
	Region   string
}

// BackplaneHandler is invoked once per received message. Handlers run on a
// single goroutine per subscription and must be lightweight;
// offload heavy work rather than blocking dispatch.
type BackplaneHandler func(BackplaneMessage)

// Backplane is the out-of-band pub/sub coordination channel a Manager
// uses to invalidate other nodes' cache tiers. Delivery is best-effort:
// messages may be lost, duplicated, or reordered
// across keys, though per-channel FIFO should be preserved where the
// transport allows it. Implementations are responsible for not delivering
// a node's own published messages back to that same node (loopback
// suppression), which is why every message carries a SenderID.
type Backplane interface {
	// SenderID returns this process's opaque identifier, used both to stamp
	// outgoing messages and to suppress delivering them back to itself.
	SenderID() string
	// Publish sends msg on the given channel. Publish may block on the
	// underlying transport but must not be called while holding a
	// cross-handle lock.
	Publish(ctx context.Context, channel string, msg BackplaneMessage) error
	// Subscribe registers handler to receive every message published to
	// channel by any sender other than this backplane's own SenderID.
	// Subscribe returns once the subscription is active.
	Subscribe(ctx context.Context, channel string, handler BackplaneHandler) error
	// Close releases the backplane's transport resources.
	Close() error
}
