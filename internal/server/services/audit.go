// Package services implements the compliance-domain business logic on top
// of the repositories: audit trail, consent ledger, retention scheduler,
// breach register, MFA, users, and the compliance scorer.
package services

import (
	"context"
	"time"

	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/google/uuid"
)

// AuditService writes the durable audit trail and echoes every entry to the
// structured log. Both paths are best-effort: an entry that cannot be
// persisted is reported through the logger, never surfaced to the caller,
// so auditing can never break a request in flight.
//
// Detail maps are sanitized before persistence; the console echo carries
// only truncated hashes of the user and IP identifiers.
type AuditService struct {
	repo   auditlogs.Repository
	secure *logging.SecureLogger
	logger logging.Logger
}

func NewAuditService(repo auditlogs.Repository, secure *logging.SecureLogger, logger logging.Logger) *AuditService {
	return &AuditService{repo: repo, secure: secure, logger: logger}
}

// Record sanitizes and persists one audit entry. Missing ID and timestamp
// are filled in.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLogEntry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "audit record panicked", "panic", r)
		}
	}()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Details = s.secure.Sanitizer().Map(entry.Details)

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error(ctx, "audit persistence failed", "error", err.Error(), "action", entry.Action)
	}

	s.logger.Info(ctx, "audit",
		"action", entry.Action,
		"resource", entry.Resource,
		"success", entry.Success,
		"user", logging.HashActor(entry.UserID),
		"ip", logging.HashActor(entry.IPAddress),
	)
}

// Stats returns the audit counters for the compliance dashboard. Errors
// propagate so the dashboard can render an explicit degraded state instead
// of a falsely clean one.
func (s *AuditService) Stats(ctx context.Context) (*auditlogs.Stats, error) {
	return s.repo.GetStats(ctx)
}
