package tiercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveExpirationItemModeWins(t *testing.T) {
	mode, timeout, err := ResolveExpiration(ExpireAbsolute, time.Second, ExpireSliding, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, ExpireAbsolute, mode)
	require.Equal(t, time.Second, timeout)
}

func TestResolveExpirationFallsBackToHandleDefault(t *testing.T) {
	mode, timeout, err := ResolveExpiration(ExpireDefault, 0, ExpireSliding, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, ExpireSliding, mode)
	require.Equal(t, 5*time.Second, timeout)
}

func TestResolveExpirationDefaultsToNone(t *testing.T) {
	mode, _, err := ResolveExpiration(ExpireDefault, 0, ExpireDefault, 0)
	require.NoError(t, err)
	require.Equal(t, ExpireNone, mode)
}

func TestResolveExpirationRequiresPositiveTimeout(t *testing.T) {
	_, _, err := ResolveExpiration(ExpireAbsolute, 0, ExpireDefault, 0)
	require.ErrorIs(t, err, ErrExpirationTimeoutRequired)
}

func TestWithValueRefreshesLastAccessed(t *testing.T) {
	item := NewCacheItem("k", "r", 1, ExpireNone, 0)
	time.Sleep(time.Millisecond)
	updated := item.WithValue(2)

	require.Equal(t, 2, updated.Value)
	require.True(t, updated.LastAccessedUTC.After(item.LastAccessedUTC))
	require.Equal(t, item.CreatedUTC, updated.CreatedUTC)
	require.Equal(t, item.Key, updated.Key)
}

func TestWithExpirationLeavesValueUntouched(t *testing.T) {
	item := NewCacheItem("k", "r", "v", ExpireNone, 0)
	updated := item.WithExpiration(ExpireAbsolute, time.Minute)

	require.Equal(t, "v", updated.Value)
	require.Equal(t, ExpireAbsolute, updated.ExpirationMode)
	require.Equal(t, time.Minute, updated.ExpirationTimeout)
}
