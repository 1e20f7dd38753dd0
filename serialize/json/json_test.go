package json

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Count int
}

func TestRoundTrip(t *testing.T) {
	s := New[widget]()
	data, err := s.Marshal(widget{Name: "gizmo", Count: 3})
	require.NoError(t, err)

	got, err := s.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, widget{Name: "gizmo", Count: 3}, got)
}
