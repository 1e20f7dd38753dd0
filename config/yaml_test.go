package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiercache/tiercache"
)

const sample = `
handles:
  - name: l1
    type: memory
    isBackplaneSource: false
  - name: l2
    type: redis
    isBackplaneSource: true
updateMode: 1
backplane:
  type: redis
  channelName: invalidation
`

func TestFromYAMLParsesAndValidates(t *testing.T) {
	cfg, err := FromYAML([]byte(sample))
	require.NoError(t, err)
	require.Len(t, cfg.Handles, 2)
	require.Equal(t, "l1", cfg.Handles[0].Name)
	require.Equal(t, tiercache.UpdateModeUp, cfg.UpdateMode)
	require.NotNil(t, cfg.Backplane)
	require.Equal(t, "invalidation", cfg.Backplane.ChannelName)
}

func TestFromYAMLRejectsInvalidTopology(t *testing.T) {
	_, err := FromYAML([]byte(`handles: []`))
	require.Error(t, err)
}

func TestFromYAMLFileMissing(t *testing.T) {
	_, err := FromYAMLFile("/nonexistent/path.yaml")
	require.Error(t, err)
}
