package handlers

import (
	"encoding/json"
	"net/http"
)

// Health reports liveness. Kept dependency-free so it stays useful even
// when the cache or store is misbehaving.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "forcemap",
	})
}
