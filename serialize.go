package tiercache

// Serializer converts values to and from bytes for handles that can only
// store byte slices (a remote store, a disk-backed tier). Handles that
// keep values in-process have no use for one.
type Serializer[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}
