package handler

import (
	"errors"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/dispatch-board/backend/internal/domain"
)

// errorResponse is the body of every non-2xx response: {"error": "..."}.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
// Encoding failures are logged, not surfaced — the status line has
// already been written by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes an errorResponse with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a service error onto the wire contract:
// the three not-found sentinels become 404 with their own messages,
// validation and snapshot-format errors become 400, and anything else is
// a 500 with a generic message so internals never leak to callers.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrStopNotFound):
		writeError(w, http.StatusNotFound, "stop not found")
	case errors.Is(err, domain.ErrOwnerNotFound):
		writeError(w, http.StatusNotFound, "owner not found")
	case errors.Is(err, domain.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, "route run not found")
	case errors.Is(err, domain.ErrSnapshotFormat):
		writeError(w, http.StatusBadRequest, "invalid snapshot format")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid payload")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// decodeBody decodes the request body into dst. It only fails on
// malformed JSON; field presence is validated by each handler.
func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
