package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/gorilla/mux"
)

type reportBreachRequest struct {
	BreachType        string   `json:"breach_type"`
	Severity          string   `json:"severity"`
	Description       string   `json:"description"`
	AffectedDataTypes []string `json:"affected_data_types,omitempty"`
	MitigationSteps   []string `json:"mitigation_steps,omitempty"`
}

type breachResponse struct {
	ID                string     `json:"id"`
	BreachType        string     `json:"breach_type"`
	Severity          string     `json:"severity"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	DiscoveryDate     time.Time  `json:"discovery_date"`
	NotificationDate  *time.Time `json:"notification_date,omitempty"`
	ResolvedDate      *time.Time `json:"resolved_date,omitempty"`
	AffectedDataTypes []string   `json:"affected_data_types,omitempty"`
	MitigationSteps   []string   `json:"mitigation_steps,omitempty"`
	AffectedUsers     int        `json:"affected_users"`
	NotifiedUsers     int        `json:"notified_users"`
}

func toBreachResponse(inc *models.BreachIncident) breachResponse {
	return breachResponse{
		ID:                inc.ID,
		BreachType:        string(inc.BreachType),
		Severity:          string(inc.Severity),
		Description:       inc.Description,
		Status:            inc.Status,
		DiscoveryDate:     inc.DiscoveryDate,
		NotificationDate:  inc.NotificationDate,
		ResolvedDate:      inc.ResolvedDate,
		AffectedDataTypes: inc.AffectedDataTypes,
		MitigationSteps:   inc.MitigationSteps,
		AffectedUsers:     inc.AffectedUsers,
		NotifiedUsers:     inc.NotifiedUsers,
	}
}

func (s *Server) reportBreach(w http.ResponseWriter, r *http.Request) {
	var req reportBreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.BreachType == "" || req.Severity == "" || req.Description == "" {
		respondError(w, http.StatusBadRequest, "breach_type, severity and description are required")
		return
	}

	incident, err := s.breaches.ReportBreach(r.Context(),
		models.BreachType(req.BreachType), models.BreachSeverity(req.Severity),
		req.Description, req.AffectedDataTypes, req.MitigationSteps)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toBreachResponse(incident))
}

func (s *Server) getBreach(w http.ResponseWriter, r *http.Request) {
	incident, err := s.breaches.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBreachResponse(incident))
}

type updateBreachStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateBreachStatus(w http.ResponseWriter, r *http.Request) {
	var req updateBreachStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !validBreachStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := s.breaches.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func validBreachStatus(status string) bool {
	switch status {
	case models.BreachDiscovered, models.BreachInvestigating,
		models.BreachNotificationSent, models.BreachResolved, models.BreachFalseAlarm:
		return true
	}
	return false
}

type notifyBreachRequest struct {
	Method string `json:"method"`
}

func (s *Server) notifyBreach(w http.ResponseWriter, r *http.Request) {
	var req notifyBreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Method == "" {
		req.Method = "email"
	}

	result, err := s.breaches.SendBreachNotifications(r.Context(), mux.Vars(r)["id"], req.Method)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) breachNotificationRequired(w http.ResponseWriter, r *http.Request) {
	required, err := s.breaches.IsNotificationRequired(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"notification_required": required})
}
