package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes v as the response body with the given status. By the
// time encoding can fail the status line is already out, so failures are
// only logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: response encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the uniform error payload for every non-2xx response.
type errResponse struct {
	Error string `json:"error"`
}

// writeError writes the uniform error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg})
}
