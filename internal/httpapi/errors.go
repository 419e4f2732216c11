package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"forumd/internal/meta"
	"forumd/internal/store"
	"forumd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// writeError maps a service error to a response. page labels lookup misses.
func writeError(w http.ResponseWriter, r *http.Request, page string, err error) {
	if u, ok := meta.IsLoginRequired(err); ok {
		http.Redirect(w, r, u, http.StatusSeeOther)
		return
	}
	if store.IsNotFound(err) {
		IncrementLookupMiss(page)
	}
	var he HTTPError
	if errors.As(err, &he) {
		writeJSONError(w, he.StatusCode(), he.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
