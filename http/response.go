package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ptrevino/mediashelf"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, mediashelf.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}

	if errors.Is(err, mediashelf.ErrInvalidKey) {
		WriteError(w, http.StatusBadRequest, "invalid_key", "Invalid storage key")
		return
	}

	if errors.Is(err, mediashelf.ErrUpstreamTimeout) {
		WriteError(w, http.StatusGatewayTimeout, "upstream_timeout", "Object store did not respond in time")
		return
	}

	if errors.Is(err, mediashelf.ErrStoreUnavailable) || errors.Is(err, mediashelf.ErrPresignNotSupported) {
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "Object store is not available")
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
