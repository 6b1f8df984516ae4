package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type consentRequest struct {
	ConsentType string     `json:"consent_type"`
	Given       bool       `json:"given"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type consentResponse struct {
	ID          string     `json:"id"`
	ConsentType string     `json:"consent_type"`
	Given       bool       `json:"given"`
	ConsentDate time.Time  `json:"consent_date"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toConsentResponse(rec *models.ConsentRecord) consentResponse {
	return consentResponse{
		ID:          rec.ID,
		ConsentType: string(rec.ConsentType),
		Given:       rec.ConsentGiven,
		ConsentDate: rec.ConsentDate,
		ExpiresAt:   rec.ExpiresAt,
	}
}

func (s *Server) recordConsent(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ConsentType == "" {
		respondError(w, http.StatusBadRequest, "consent_type is required")
		return
	}

	rec, err := s.consents.RecordConsent(r.Context(), claims.UserID,
		models.ConsentType(req.ConsentType), req.Given, clientIP(r), r.UserAgent(), req.ExpiresAt)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toConsentResponse(rec))
}

func (s *Server) revokeConsent(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ConsentType == "" {
		respondError(w, http.StatusBadRequest, "consent_type is required")
		return
	}

	rec, err := s.consents.RevokeConsent(r.Context(), claims.UserID,
		models.ConsentType(req.ConsentType), clientIP(r), r.UserAgent())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toConsentResponse(rec))
}

// consentStatus reports the required-consent check, plus the current state
// of one type when ?type= is given.
func (s *Server) consentStatus(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	if ct := r.URL.Query().Get("type"); ct != "" {
		ok, err := s.consents.HasConsent(r.Context(), claims.UserID, models.ConsentType(ct))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"consent_type": ct, "granted": ok})
		return
	}

	result, err := s.consents.HasRequiredConsents(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"has_all_consents": result.HasAllConsents,
		"missing_consents": result.MissingConsents,
	})
}

func (s *Server) consentHistory(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	history, err := s.consents.History(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]consentResponse, 0, len(history))
	for _, rec := range history {
		out = append(out, toConsentResponse(rec))
	}
	respondJSON(w, http.StatusOK, out)
}
