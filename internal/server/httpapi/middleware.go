package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bloomwell/telehealth/internal/server/auth"
	"github.com/bloomwell/telehealth/internal/server/models"
)

type ctxKey int

const claimsKey ctxKey = 0

// ClaimsFromContext returns the authenticated caller's claims, or nil on an
// unauthenticated request.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// authenticate validates the bearer token and stores the claims on the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// requireAdmin allows only callers with the admin role past.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the audit trail.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// audit records every request on the protected surface in the durable audit
// trail. Recording is best-effort and never blocks the response.
func (s *Server) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := &models.AuditLogEntry{
			Action:    r.Method + " " + r.URL.Path,
			Resource:  r.URL.Path,
			Timestamp: time.Now(),
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
			Success:   rec.status < http.StatusBadRequest,
		}
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			entry.UserID = claims.UserID
		}
		s.auditSvc.Record(r.Context(), entry)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
