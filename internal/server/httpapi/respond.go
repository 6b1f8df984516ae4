package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bloomwell/telehealth/internal/common"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the shared sentinel errors onto HTTP statuses.
// Unrecognized errors collapse to a generic 500 so internals never leak to
// the client.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		respondError(w, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, common.ErrMFARequired):
		respondError(w, http.StatusUnauthorized, "mfa code required")
	case errors.Is(err, common.ErrInvalidMFACode):
		respondError(w, http.StatusUnauthorized, "invalid mfa code")
	case errors.Is(err, common.ErrorConflict):
		respondError(w, http.StatusConflict, "conflict")
	case errors.Is(err, common.ErrUnknownDataCategory),
		errors.Is(err, common.ErrConsentMissing):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
