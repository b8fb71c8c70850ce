package cache

import "time"

// MockCache is an in-memory Cache for tests. It also counts hits, misses
// and adds so collector tests can assert on Stats.
type MockCache struct {
	data      map[string][]byte
	hits      uint64
	misses    uint64
	keysAdded uint64
	evictions uint64
}

// NewMockCache creates an empty mock cache.
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
	}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	val, found := m.data[key]
	if found {
		m.hits++
	} else {
		m.misses++
	}
	return val, found
}

func (m *MockCache) Set(key string, value []byte, ttl time.Duration) {
	m.data[key] = value
	m.keysAdded++
}

func (m *MockCache) Delete(key string) {
	delete(m.data, key)
}

func (m *MockCache) Clear() {
	m.data = make(map[string][]byte)
}

// Evict removes a key and counts it as an eviction, for collector tests.
func (m *MockCache) Evict(key string) {
	delete(m.data, key)
	m.evictions++
}

func (m *MockCache) Stats() Stats {
	var size int64
	for _, v := range m.data {
		size += int64(len(v))
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		KeysAdded: m.keysAdded,
		Evictions: m.evictions,
		Size:      size,
		Items:     int64(len(m.data)),
	}
}
