package httpapi

import "net/http"

// complianceDashboard returns the score, the raw counters, and per-section
// availability. A partially unavailable report is served as 200 with
// degraded=true so a store outage is visible instead of masquerading as a
// clean slate.
func (s *Server) complianceDashboard(w http.ResponseWriter, r *http.Request) {
	report := s.compliance.Report(r.Context())
	respondJSON(w, http.StatusOK, report)
}
