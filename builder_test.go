package tiercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuilderFluentChainProducesValidConfig(t *testing.T) {
	cfg, err := NewBuilder().
		WithHandle("memory", "l1", false).
		WithExpiration(ExpireSliding, 10*time.Second).
		WithStatistics(true).
		WithHandle("redis", "l2", true).
		WithExpiration(ExpireAbsolute, time.Minute).
		WithBackplane("redis", "invalidation").
		WithUpdateMode(UpdateModeUp).
		WithSingleflight(true).
		Build()
	require.NoError(t, err)

	require.Len(t, cfg.Handles, 2)
	require.Equal(t, "l1", cfg.Handles[0].Name)
	require.Equal(t, ExpireSliding, cfg.Handles[0].DefaultExpirationMode)
	require.True(t, cfg.Handles[0].EnableStatistics)
	require.Equal(t, "l2", cfg.Handles[1].Name)
	require.True(t, cfg.Handles[1].IsBackplaneSource)
	require.Equal(t, UpdateModeUp, cfg.UpdateMode)
	require.NotNil(t, cfg.Backplane)
	require.Equal(t, "invalidation", cfg.Backplane.ChannelName)
	require.True(t, cfg.CoalesceFills)
}

func TestBuilderWithoutHandleIsNoopUntilOneExists(t *testing.T) {
	b := NewBuilder().WithExpiration(ExpireSliding, time.Second).WithStatistics(true)
	_, err := b.Build()
	require.ErrorIs(t, err, ErrNoHandles)
}

func TestBuilderRejectsInvalidTopology(t *testing.T) {
	_, err := NewBuilder().
		WithHandle("memory", "l1", false).
		WithBackplane("redis", "ch").
		Build()
	require.ErrorIs(t, err, ErrBackplaneNeedsSource)
}
