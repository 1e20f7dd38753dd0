package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiercache/tiercache"
	"github.com/tiercache/tiercache/backplane/local"
	"github.com/tiercache/tiercache/handle/memory"
	jsonser "github.com/tiercache/tiercache/serialize/json"
)

func memoryCtor[V any]() HandleConstructor[V] {
	return func(_ context.Context, cfg tiercache.HandleConfig, _ tiercache.Serializer[V]) (tiercache.Handle[V], error) {
		capacity := 1000
		if v, ok := cfg.Options["capacity"].(int); ok {
			capacity = v
		}
		return memory.New[V](cfg.Name, memory.Config{
			Capacity:              capacity,
			DefaultExpirationMode: cfg.DefaultExpirationMode,
			DefaultExpiration:     cfg.DefaultExpirationTimeout,
		})
	}
}

func jsonSerializerCtor[V any]() SerializerConstructor[V] {
	return func(tiercache.SerializerConfig) (tiercache.Serializer[V], error) {
		return jsonser.New[V](), nil
	}
}

func TestBuildResolvesHandlesAndBackplane(t *testing.T) {
	bus := local.NewBus()
	reg := NewRegistry[string]()
	reg.RegisterHandle("memory", memoryCtor[string]())
	reg.RegisterBackplane("local", func(context.Context, tiercache.BackplaneConfig) (tiercache.Backplane, error) {
		return local.New(bus), nil
	})

	cfg := tiercache.ManagerConfig{
		Handles: []tiercache.HandleConfig{
			{Name: "l1", Type: "memory"},
			{Name: "l2", Type: "memory", IsBackplaneSource: true},
		},
		Backplane: &tiercache.BackplaneConfig{Type: "local", ChannelName: "test"},
	}

	mgr, err := reg.Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, mgr)

	added, err := mgr.Add(context.Background(), tiercache.NewCacheItem("k", "r", "v", tiercache.ExpireNone, 0))
	require.NoError(t, err)
	require.True(t, added)
}

func TestBuildRejectsUnknownHandleType(t *testing.T) {
	reg := NewRegistry[string]()
	cfg := tiercache.ManagerConfig{Handles: []tiercache.HandleConfig{{Name: "l1", Type: "nonexistent"}}}

	_, err := reg.Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestBuildResolvesSerializerAndPassesItToHandles(t *testing.T) {
	reg := NewRegistry[string]()
	reg.RegisterSerializer("json", jsonSerializerCtor[string]())

	var gotSerializer tiercache.Serializer[string]
	reg.RegisterHandle("memory", func(_ context.Context, cfg tiercache.HandleConfig, ser tiercache.Serializer[string]) (tiercache.Handle[string], error) {
		gotSerializer = ser
		return memory.New[string](cfg.Name, memory.Config{Capacity: 1000})
	})

	cfg := tiercache.ManagerConfig{
		Handles:    []tiercache.HandleConfig{{Name: "l1", Type: "memory"}},
		Serializer: &tiercache.SerializerConfig{Type: "json"},
	}

	mgr, err := reg.Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, mgr)
	require.NotNil(t, gotSerializer, "the resolved serializer must reach the handle constructor")

	encoded, err := gotSerializer.Marshal("v")
	require.NoError(t, err)
	decoded, err := gotSerializer.Unmarshal(encoded)
	require.NoError(t, err)
	require.Equal(t, "v", decoded)
}

func TestBuildRejectsUnknownSerializerType(t *testing.T) {
	reg := NewRegistry[string]()
	reg.RegisterHandle("memory", memoryCtor[string]())
	cfg := tiercache.ManagerConfig{
		Handles:    []tiercache.HandleConfig{{Name: "l1", Type: "memory"}},
		Serializer: &tiercache.SerializerConfig{Type: "nonexistent"},
	}

	_, err := reg.Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestBuildRejectsUnknownBackplaneType(t *testing.T) {
	reg := NewRegistry[string]()
	reg.RegisterHandle("memory", memoryCtor[string]())
	cfg := tiercache.ManagerConfig{
		Handles:   []tiercache.HandleConfig{{Name: "l1", Type: "memory", IsBackplaneSource: true}},
		Backplane: &tiercache.BackplaneConfig{Type: "nonexistent"},
	}

	_, err := reg.Build(context.Background(), cfg)
	require.Error(t, err)
}
