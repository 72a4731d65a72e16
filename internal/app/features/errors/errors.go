// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Error kinds carried in the JSON error envelope. Clients branch on the
// kind, not the message, so these are part of the API contract.
const (
	KindAuth               = "auth_error"
	KindProfileUnavailable = "profile_unavailable"
	KindNameTaken          = "name_taken"
	KindValidation         = "validation_error"
	KindWriteFailed        = "write_failed"
	KindNotFound           = "not_found"
	KindRateLimited        = "rate_limited"
	KindServer             = "server_error"
)

type envelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Write sends the JSON error envelope with the given status.
func Write(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: errorBody{Kind: kind, Message: message}})
}

// WriteValidation sends a 400 validation_error.
func WriteValidation(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, KindValidation, message)
}

// WriteNameTaken sends a 409 name_taken.
func WriteNameTaken(w http.ResponseWriter, message string) {
	Write(w, http.StatusConflict, KindNameTaken, message)
}

// WriteAuth sends a 401 auth_error.
func WriteAuth(w http.ResponseWriter, message string) {
	Write(w, http.StatusUnauthorized, KindAuth, message)
}
