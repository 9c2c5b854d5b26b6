// Package handlers implements the operations HTTP endpoints: liveness,
// readiness and the recent domain events feed.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orgplan/orgplan/internal/domain"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// queryInt reads a positive integer query parameter. A missing parameter
// yields def; anything else that is not a positive integer is a validation
// error. Values above limit are clamped.
func queryInt(r *http.Request, name string, def, limit int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &domain.ValidationError{
			Fields: map[string]string{name: "must be a positive integer"},
		}
	}
	return min(n, limit), nil
}
