package tiercache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyHandles(t *testing.T) {
	err := ManagerConfig{}.Validate()
	require.ErrorIs(t, err, ErrNoHandles)
}

func TestValidateRejectsDuplicateHandleNames(t *testing.T) {
	cfg := ManagerConfig{Handles: []HandleConfig{{Name: "l1", Type: "memory"}, {Name: "l1", Type: "redis"}}}
	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDuplicateHandleName)
}

func TestValidateRequiresBackplaneSourceHandle(t *testing.T) {
	cfg := ManagerConfig{
		Handles:   []HandleConfig{{Name: "l1", Type: "memory"}},
		Backplane: &BackplaneConfig{Type: "redis"},
	}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrBackplaneNeedsSource)
}

func TestValidateAcceptsBackplaneWithSource(t *testing.T) {
	cfg := ManagerConfig{
		Handles:   []HandleConfig{{Name: "l1", Type: "memory", IsBackplaneSource: true}},
		Backplane: &BackplaneConfig{Type: "redis"},
	}
	require.NoError(t, cfg.Validate())
}
