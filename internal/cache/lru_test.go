package cache

import (
	"testing"
	"time"
)

func TestLRUSetAndGet(t *testing.T) {
	c, err := NewLRU(10, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	key := "a1b2c3d4e5f60718"
	value := []byte(`{"key":"a1b2c3d4e5f60718","nodes":[{"id":0,"x":1.5,"y":2.5}]}`)
	c.Set(key, value, 0)
	c.cache.Wait() // Set is async

	got, found := c.Get(key)
	if !found {
		t.Error("Expected to find cached result")
	}
	if string(got) != string(value) {
		t.Errorf("Expected %s, got %s", value, got)
	}
}

func TestLRUGetMissing(t *testing.T) {
	c, err := NewLRU(10, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	if _, found := c.Get("ffffffffffffffff"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestLRUExpiration(t *testing.T) {
	c, err := NewLRU(10, 100, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	c.Set("shortlived", []byte("positions"), 100*time.Millisecond)
	c.cache.Wait()

	if _, found := c.Get("shortlived"); !found {
		t.Error("Expected entry right after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := c.Get("shortlived"); found {
		t.Error("Expected entry to expire")
	}
}

func TestLRUDelete(t *testing.T) {
	c, err := NewLRU(10, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	c.Set("stale-run", []byte("positions"), 0)
	c.cache.Wait()

	c.Delete("stale-run")
	c.cache.Wait()

	if _, found := c.Get("stale-run"); found {
		t.Error("Expected entry to be deleted")
	}
}

func TestLRUClear(t *testing.T) {
	c, err := NewLRU(10, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	c.Set("run1", []byte("a"), 0)
	c.Set("run2", []byte("b"), 0)
	c.Set("run3", []byte("c"), 0)
	c.cache.Wait()

	c.Clear()
	c.cache.Wait()

	for _, key := range []string{"run1", "run2", "run3"} {
		if _, found := c.Get(key); found {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestLRUStats(t *testing.T) {
	c, err := NewLRU(10, 100, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	c.Set("run1", []byte("positions1"), 0)
	c.Set("run2", []byte("positions2"), 0)
	c.cache.Wait()

	if val, found := c.Get("run1"); !found || string(val) != "positions1" {
		t.Error("Expected to find run1 with correct value")
	}

	// Ristretto updates its counters asynchronously, so only assert
	// that the snapshot is well formed.
	stats := c.Stats()
	if stats.Hits+stats.Misses == 0 {
		t.Error("Expected Stats to report at least one lookup")
	}
}

func TestLRUSizeLimit(t *testing.T) {
	// 1 MB cache, verify it keeps serving under admission pressure.
	c, err := NewLRU(1, 1000, 60*time.Second)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	keys := []string{"small1", "small2", "small3"}
	for _, key := range keys {
		c.Set(key, []byte("payload-"+key), 0)
	}
	c.cache.Wait()

	found := false
	for _, key := range keys {
		if _, ok := c.Get(key); ok {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected at least one item to survive admission")
	}
}
