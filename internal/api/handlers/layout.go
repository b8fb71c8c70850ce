package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/forcemap/internal/apierr"
	"github.com/onnwee/forcemap/internal/circuitbreaker"
	"github.com/onnwee/forcemap/internal/layout"
	"github.com/onnwee/forcemap/internal/logger"
	"github.com/onnwee/forcemap/internal/middleware"
	"github.com/onnwee/forcemap/internal/service"
)

// LayoutHandler serves layout computation requests.
type LayoutHandler struct {
	svc *service.Service
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(svc *service.Service) *LayoutHandler {
	return &LayoutHandler{svc: svc}
}

// PostLayout computes (or returns a cached) layout for the requested
// parameters.
// POST /api/layouts
func (h *LayoutHandler) PostLayout(w http.ResponseWriter, r *http.Request) {
	var params service.Params
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
			return
		}
	}

	result, err := h.svc.Run(r.Context(), params)
	if err != nil {
		writeRunError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// GetLayout returns a previously computed layout by key.
// GET /api/layouts/{key}
func (h *LayoutHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	key := middleware.SanitizeString(mux.Vars(r)["key"], 64)
	if key == "" {
		apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("key"))
		return
	}

	result, err := h.svc.Get(r.Context(), key)
	if errors.Is(err, service.ErrNotFound) {
		apierr.WriteErrorWithContext(w, r, apierr.LayoutNotFound(key))
		return
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		apierr.WriteErrorWithContext(w, r, apierr.SystemUnavailable("Persistence temporarily unavailable"))
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to fetch layout", "key", key, "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

func writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, layout.ErrEmptyGraph):
		apierr.WriteErrorWithContext(w, r, apierr.LayoutEmptyGraph())
	case errors.Is(err, context.DeadlineExceeded):
		apierr.WriteErrorWithContext(w, r, apierr.LayoutTimeout(""))
	case errors.Is(err, context.Canceled):
		apierr.WriteErrorWithContext(w, r, apierr.LayoutTimeout("Request cancelled"))
	case isValidationError(err):
		apierr.WriteErrorWithContext(w, r, apierr.LayoutInvalidParams(err.Error()))
	default:
		logger.ErrorContext(r.Context(), "Layout run failed", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.LayoutFailed(""))
	}
}

// isValidationError reports whether err came from parameter validation
// rather than the computation itself.
func isValidationError(err error) bool {
	var ve *service.ValidationError
	return errors.As(err, &ve)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
