package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flameborn/validator/internal/apperr"
)

var (
	errMissingPrincipal  = errors.New("missing validatorWallet")
	errTokenRequired     = errors.New("bearer token required")
	errPrincipalMismatch = errors.New("validatorWallet does not match the authenticated principal")
)

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	respondJSON(w, status, map[string]string{"error": msg, "code": code})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errTokenRequired):
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, errPrincipalMismatch):
		return http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, errMissingPrincipal):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	}
	code := apperr.Code(err)
	switch code {
	case "VALIDATION_ERROR":
		return http.StatusBadRequest, code
	case "NOT_FOUND":
		return http.StatusNotFound, code
	case "UNAUTHORIZED":
		return http.StatusForbidden, code
	case "INVALID_STATE", "CONFLICT":
		return http.StatusConflict, code
	default:
		return http.StatusInternalServerError, code
	}
}

// respondServiceError maps err onto the HTTP taxonomy. Internal failures are
// logged and replaced by a generic message.
func respondServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		msg = "internal server error"
	}
	respondError(w, status, code, msg)
}
