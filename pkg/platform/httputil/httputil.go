// Package httputil centralizes JSON response writing so handlers stay thin and
// error envelopes remain consistent across the API surface.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "vocalmind/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status code.
// Encoding failures are silently dropped; headers are already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard JSON error envelope.
// Internal errors omit the description so storage or dependency details never
// leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
