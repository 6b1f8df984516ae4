package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type createPolicyRequest struct {
	UserID         string `json:"user_id"`
	DataType       string `json:"data_type"`
	RetentionYears *int   `json:"retention_years,omitempty"`
}

type policyResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	DataType       string    `json:"data_type"`
	RetentionYears int       `json:"retention_years"`
	DeletionDate   time.Time `json:"deletion_date"`
	Status         string    `json:"status"`
}

func toPolicyResponse(p *models.RetentionPolicy) policyResponse {
	return policyResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		DataType:       string(p.DataType),
		RetentionYears: p.RetentionPeriodYears,
		DeletionDate:   p.DeletionDate,
		Status:         p.Status,
	}
}

func (s *Server) createRetentionPolicy(w http.ResponseWriter, r *http.Request) {
	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.DataType == "" {
		respondError(w, http.StatusBadRequest, "user_id and data_type are required")
		return
	}

	policy, err := s.retention.CreatePolicy(r.Context(), req.UserID,
		models.DataCategory(req.DataType), req.RetentionYears)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

type scheduleDeletionRequest struct {
	UserID       string    `json:"user_id"`
	DataType     string    `json:"data_type"`
	DeletionDate time.Time `json:"deletion_date"`
}

func (s *Server) scheduleDeletion(w http.ResponseWriter, r *http.Request) {
	var req scheduleDeletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.DataType == "" || req.DeletionDate.IsZero() {
		respondError(w, http.StatusBadRequest, "user_id, data_type and deletion_date are required")
		return
	}

	err := s.retention.ScheduleDataDeletion(r.Context(), req.UserID,
		models.DataCategory(req.DataType), req.DeletionDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "scheduled"})
}

type deleteUserDataRequest struct {
	UserID   string `json:"user_id"`
	DataType string `json:"data_type"`
}

// deleteUserData archives (when configured) and hard-deletes one user's
// rows in one category, immediately.
func (s *Server) deleteUserData(w http.ResponseWriter, r *http.Request) {
	var req deleteUserDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.DataType == "" {
		respondError(w, http.StatusBadRequest, "user_id and data_type are required")
		return
	}

	if err := s.retention.DeleteUserData(r.Context(), req.UserID, models.DataCategory(req.DataType)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) listScheduledDeletions(w http.ResponseWriter, r *http.Request) {
	due, err := s.retention.FindScheduledDeletions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]policyResponse, 0, len(due))
	for _, p := range due {
		out = append(out, toPolicyResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// processDeletions runs one deletion batch. Per-item failures come back in
// the body alongside the processed count; the batch itself still succeeds.
func (s *Server) processDeletions(w http.ResponseWriter, r *http.Request) {
	result, err := s.retention.ProcessScheduledDeletions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
