// Package httpapi exposes the compliance platform as a JSON-over-HTTP API.
package httpapi

import (
	"net/http"

	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/services"
	"github.com/gorilla/mux"
)

// Server holds the service layer and builds the HTTP router.
type Server struct {
	users      *services.UserService
	mfa        *services.MFAService
	consents   *services.ConsentService
	retention  *services.RetentionService
	breaches   *services.BreachService
	compliance *services.ComplianceService
	auditSvc   *services.AuditService
	jwtSecret  []byte
	logger     logging.Logger
}

func NewServer(
	users *services.UserService,
	mfa *services.MFAService,
	consents *services.ConsentService,
	retention *services.RetentionService,
	breaches *services.BreachService,
	compliance *services.ComplianceService,
	audit *services.AuditService,
	jwtSecret []byte,
	logger logging.Logger,
) *Server {
	return &Server{
		users:      users,
		mfa:        mfa,
		consents:   consents,
		retention:  retention,
		breaches:   breaches,
		compliance: compliance,
		auditSvc:   audit,
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

// Routes builds the full route table. Everything under /api requires a
// bearer token and is audit-logged; admin-only surfaces additionally check
// the role claim.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.register).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	auth.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(s.authenticate))
	api.Use(mux.MiddlewareFunc(s.audit))

	api.HandleFunc("/profile", s.saveProfile).Methods(http.MethodPut)
	api.HandleFunc("/profile", s.getProfile).Methods(http.MethodGet)

	api.HandleFunc("/mfa/setup", s.mfaSetup).Methods(http.MethodPost)
	api.HandleFunc("/mfa/verify", s.mfaVerify).Methods(http.MethodPost)

	api.HandleFunc("/consents", s.recordConsent).Methods(http.MethodPost)
	api.HandleFunc("/consents/revoke", s.revokeConsent).Methods(http.MethodPost)
	api.HandleFunc("/consents/status", s.consentStatus).Methods(http.MethodGet)
	api.HandleFunc("/consents/history", s.consentHistory).Methods(http.MethodGet)

	admin := api.PathPrefix("").Subrouter()
	admin.Use(mux.MiddlewareFunc(s.requireAdmin))

	admin.HandleFunc("/retention/policies", s.createRetentionPolicy).Methods(http.MethodPost)
	admin.HandleFunc("/retention/schedule", s.scheduleDeletion).Methods(http.MethodPost)
	admin.HandleFunc("/retention/scheduled", s.listScheduledDeletions).Methods(http.MethodGet)
	admin.HandleFunc("/retention/delete", s.deleteUserData).Methods(http.MethodPost)
	admin.HandleFunc("/retention/process", s.processDeletions).Methods(http.MethodPost)

	admin.HandleFunc("/breaches", s.reportBreach).Methods(http.MethodPost)
	admin.HandleFunc("/breaches/{id}", s.getBreach).Methods(http.MethodGet)
	admin.HandleFunc("/breaches/{id}/status", s.updateBreachStatus).Methods(http.MethodPut)
	admin.HandleFunc("/breaches/{id}/notify", s.notifyBreach).Methods(http.MethodPost)
	admin.HandleFunc("/breaches/{id}/notification-required", s.breachNotificationRequired).Methods(http.MethodGet)

	admin.HandleFunc("/compliance/dashboard", s.complianceDashboard).Methods(http.MethodGet)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
