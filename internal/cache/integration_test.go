package cache

import (
	"fmt"
	"testing"
	"time"
)

// TestCacheLifecycle exercises the LRU cache the way the layout service
// uses it: keyed serialized results with TTL and invalidation.
func TestCacheLifecycle(t *testing.T) {
	c, err := NewLRU(1, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	t.Run("store and fetch result", func(t *testing.T) {
		key := "b33f5ca1ab1ef00d"
		value := []byte(`{"key":"b33f5ca1ab1ef00d","kinetic_energy":1.25}`)

		c.Set(key, value, 0)

		got, found := c.Get(key)
		if !found {
			t.Error("Expected to find cached result")
		}
		if string(got) != string(value) {
			t.Errorf("Expected %s, got %s", value, got)
		}
	})

	t.Run("entry expires", func(t *testing.T) {
		c.Set("ephemeral", []byte("positions"), 100*time.Millisecond)

		if _, found := c.Get("ephemeral"); !found {
			t.Error("Expected entry right after set")
		}

		time.Sleep(150 * time.Millisecond)

		if _, found := c.Get("ephemeral"); found {
			t.Error("Expected entry to expire")
		}
	})

	t.Run("clear drops everything", func(t *testing.T) {
		c.Set("runA", []byte("a"), 0)
		c.Set("runB", []byte("b"), 0)

		c.Clear()

		if _, found := c.Get("runA"); found {
			t.Error("Expected runA to be invalidated")
		}
		if _, found := c.Get("runB"); found {
			t.Error("Expected runB to be invalidated")
		}
	})

	t.Run("stats move", func(t *testing.T) {
		c.Clear()

		c.Set("statA", []byte("a"), 0)
		c.Set("statB", []byte("b"), 0)

		// Ristretto's counters are eventually consistent; just log
		// if they lag rather than failing the run.
		stats := c.Stats()
		if stats.KeysAdded < 2 {
			t.Logf("Stats lagging: %+v", stats)
		}
	})
}

// TestCacheUnderPressure verifies the cache keeps serving when the byte
// budget forces admission rejections.
func TestCacheUnderPressure(t *testing.T) {
	c, err := NewLRU(1, 10, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	for i := 0; i < 20; i++ {
		c.Set(fmt.Sprintf("run-%02d", i), []byte("serialized layout result"), 0)
	}

	found := 0
	for i := 0; i < 20; i++ {
		if _, ok := c.Get(fmt.Sprintf("run-%02d", i)); ok {
			found++
		}
	}

	if found == 0 {
		t.Error("Expected at least some results to be cached")
	}
	t.Logf("Cache retained %d of 20 results under pressure", found)
}
