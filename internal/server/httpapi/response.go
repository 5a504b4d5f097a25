// Package httpapi exposes the REST surface: the router, the authentication
// middleware, and the request handlers.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes surfaced to clients. The middleware contract maps every
// authentication failure to exactly one of these.
const (
	CodeMissingToken     = "MISSING_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeTokenRevoked     = "TOKEN_REVOKED"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	CodeAuthFailed       = "AUTH_FAILED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeEmailTaken       = "EMAIL_TAKEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

type errorBody struct {
	Code string `json:"code"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// writeJSON writes a success envelope: {"success":true,"data":...}.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError writes {"success":false,"error":{"code":...}}.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{Code: code}})
}
