package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"
)

// openTestStore connects to the database named by TEST_DATABASE_URL,
// skipping the test when it is not set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping store integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{
		Key:           "test-run-roundtrip",
		Params:        json.RawMessage(`{"vertices":100,"theta":0.5}`),
		Positions:     json.RawMessage(`[{"id":0,"x":1.5,"y":2.5}]`),
		KineticEnergy: 42.5,
		Iterations:    120,
		ElapsedMS:     87,
	}

	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, err := s.GetRun(ctx, run.Key)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.KineticEnergy != run.KineticEnergy || got.Iterations != run.Iterations {
		t.Errorf("round trip mismatch: got energy=%v iterations=%d", got.KineticEnergy, got.Iterations)
	}
	if string(got.Positions) == "" {
		t.Error("expected positions to round trip")
	}
}

func TestSaveRunUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{
		Key:    "test-run-upsert",
		Params: json.RawMessage(`{"vertices":10}`),
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("first save: %v", err)
	}

	run.Iterations = 77
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.GetRun(ctx, run.Key)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Iterations != 77 {
		t.Errorf("expected upsert to update iterations, got %d", got.Iterations)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-key")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
