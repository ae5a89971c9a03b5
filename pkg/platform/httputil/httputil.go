// Package httputil centralizes JSON response writing and sentinel-to-HTTP
// error translation so every handler returns the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"idregistry/pkg/platform/sentinel"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a registry error into a machine-checkable JSON
// envelope. Unknown errors become an opaque internal_error so internals do
// not leak.
func WriteError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, sentinel.ErrInvalidSignature):
		status, code = http.StatusBadRequest, "invalid_signature"
	case errors.Is(err, sentinel.ErrSignatureExpired):
		status, code = http.StatusBadRequest, "signature_expired"
	case errors.Is(err, sentinel.ErrInsufficientPayment):
		status, code = http.StatusPaymentRequired, "insufficient_payment"
	case errors.Is(err, sentinel.ErrUnavailable):
		status, code = http.StatusUnprocessableEntity, "unprocessable"
	}

	body := map[string]string{"error": code}
	if status != http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}

// Decode parses a JSON request body into T, writing a bad_request envelope
// on failure.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "bad_request",
			"error_description": "malformed JSON body",
		})
		return req, false
	}
	return req, true
}
