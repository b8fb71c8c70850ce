package cache

import "time"

// Cache stores serialized layout results by deterministic parameter key.
// Entries expire after a TTL so stale runs age out on their own.
type Cache interface {
	// Get returns the cached bytes for key, and whether a live entry exists.
	Get(key string) ([]byte, bool)

	// Set stores value under key. A ttl of 0 uses the cache default.
	Set(key string, value []byte, ttl time.Duration)

	// Delete evicts a single entry.
	Delete(key string)

	// Clear evicts everything.
	Clear()

	// Stats reports counters for the metrics collector.
	Stats() Stats
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	KeysAdded uint64
	Evictions uint64 // entries dropped by the admission/eviction policy
	Size      int64  // approximate resident bytes
	Items     int64
}
