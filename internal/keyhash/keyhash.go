// Package keyhash supplies the hash function the statistics package uses
// to shard per-region counters by (key, region) identity without locking.
package keyhash

import (
	"github.com/cespare/xxhash/v2"
)

// Identity hashes a (key, region) pair into a single uint64 used to shard
// per-region counters.
func Identity(key, region string) uint64 {
	// Region and key are joined with a NUL separator, so ("ab", "c") and
	// ("a", "bc") hash differently. NUL bytes inside a key or region are not
	// rejected, so pairs that contain them can still produce the same bytes.
	buf := make([]byte, 0, len(key)+len(region)+1)
	buf = append(buf, region...)
	buf = append(buf, 0)
	buf = append(buf, key...)
	return xxhash.Sum64(buf)
}

// Shard maps a hash into [0, shards).
func Shard(hash uint64, shards int) int {
	if shards <= 0 {
		return 0
	}
	return int(hash % uint64(shards))
}
