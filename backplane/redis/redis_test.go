package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tiercache/tiercache"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	publisher := New(newTestClient(t))
	subscriber := New(newTestClient(t))

	received := make(chan tiercache.BackplaneMessage, 1)
	require.NoError(t, subscriber.Subscribe(ctx, "tiercache-test", func(m tiercache.BackplaneMessage) {
		received <- m
	}))

	msg := tiercache.BackplaneMessage{SenderID: publisher.SenderID(), Op: tiercache.OpRemoved, Key: "k", Region: "r"}
	require.NoError(t, publisher.Publish(ctx, "tiercache-test", msg))

	select {
	case got := <-received:
		require.Equal(t, msg, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}

func TestSubscribeIgnoresOwnMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	client := newTestClient(t)
	bp := New(client)

	received := make(chan tiercache.BackplaneMessage, 1)
	require.NoError(t, bp.Subscribe(ctx, "loopback", func(m tiercache.BackplaneMessage) { received <- m }))

	require.NoError(t, bp.Publish(ctx, "loopback", tiercache.BackplaneMessage{SenderID: bp.SenderID(), Op: tiercache.OpCleared}))

	select {
	case <-received:
		t.Fatal("publisher must not receive its own message")
	case <-ctx.Done():
	}
}
