// Package redis provides a distributed Backplane over Redis Pub/Sub using
// github.com/redis/go-redis/v9, for coordinating cache invalidation across
// processes/nodes. Delivery is best-effort: Redis Pub/Sub
// does not persist messages for disconnected subscribers, which matches
// the backplane's own best-effort contract (a missed invalidation self-heals
// on the next natural expiration or overwrite).
package redis

import (
	"context"
	"encoding/json"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"github.com/google/uuid"

	"github.com/tiercache/tiercache"
)

// wireMessage is the JSON envelope put on the wire; encoding/json is used
// here rather than a binary codec because the payload is a handful of
// short strings published at low frequency relative to Get/Put traffic,
// and go-redis's own examples marshal Pub/Sub payloads as JSON directly.
type wireMessage struct {
	SenderID string `json:"sender_id"`
	Op       int    `json:"op"`
	Key      string `json:"key"`
	Region   string `json:"region"`
}

// Backplane is a github.com/redis/go-redis/v9-backed tiercache.Backplane.
type Backplane struct {
	client   *goredis.Client
	senderID string

	mu   sync.Mutex
	pubs []*goredis.PubSub
}

// New returns a Backplane that publishes and subscribes through client.
func New(client *goredis.Client) *Backplane {
	return &Backplane{client: client, senderID: uuid.NewString()}
}

func (b *Backplane) SenderID() string { return b.senderID }

// Publish JSON-encodes msg and publishes it to channel.
func (b *Backplane) Publish(ctx context.Context, channel string, msg tiercache.BackplaneMessage) error {
	payload, err := json.Marshal(wireMessage{
		SenderID: msg.SenderID,
		Op:       int(msg.Op),
		Key:      msg.Key,
		Region:   msg.Region,
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe starts a background goroutine delivering every message on
// channel from a sender other than this Backplane's own ID to handler. The
// goroutine exits when ctx is done or the subscription is closed.
func (b *Backplane) Subscribe(ctx context.Context, channel string, handler tiercache.BackplaneHandler) error {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	b.mu.Lock()
	b.pubs = append(b.pubs, pubsub)
	b.mu.Unlock()

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var wm wireMessage
				if err := json.Unmarshal([]byte(m.Payload), &wm); err != nil {
					continue
				}
				if wm.SenderID == b.senderID {
					continue
				}
				handler(tiercache.BackplaneMessage{
					SenderID: wm.SenderID,
					Op:       tiercache.BackplaneOp(wm.Op),
					Key:      wm.Key,
					Region:   wm.Region,
				})
			}
		}
	}()
	return nil
}

// Close closes every subscription opened by this Backplane and the
// underlying client.
func (b *Backplane) Close() error {
	b.mu.Lock()
	pubs := b.pubs
	b.pubs = nil
	b.mu.Unlock()

	var firstErr error
	for _, p := range pubs {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
