package httpapi

import (
	"encoding/json"
	"net/http"
)

func (s *Server) mfaSetup(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	result, err := s.mfa.Setup(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	// The only response ever carrying the plaintext backup codes.
	respondJSON(w, http.StatusOK, result)
}

type mfaVerifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) mfaVerify(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	var req mfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ok, err := s.mfa.VerifyCode(r.Context(), claims.UserID, req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
