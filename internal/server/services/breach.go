package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/bloomwell/telehealth/internal/server/repositories/breaches"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
	"github.com/google/uuid"
)

// NotificationResult reports a notification dispatch: per-user successes and
// failures counted independently.
type NotificationResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// BreachService maintains the breach incident register and drives user
// notification.
type BreachService struct {
	repo      breaches.Repository
	users     users.Repository
	auditLogs auditlogs.Repository
	notifier  Notifier
	deadline  time.Duration
	logger    logging.Logger
	now       func() time.Time
}

func NewBreachService(repo breaches.Repository, userRepo users.Repository, auditRepo auditlogs.Repository, notifier Notifier, deadline time.Duration, logger logging.Logger) *BreachService {
	return &BreachService{
		repo:      repo,
		users:     userRepo,
		auditLogs: auditRepo,
		notifier:  notifier,
		deadline:  deadline,
		logger:    logger,
		now:       time.Now,
	}
}

// ReportBreach records a newly discovered incident. The affected-user count
// is estimated immediately so the register reflects scope from the start.
func (s *BreachService) ReportBreach(ctx context.Context, breachType models.BreachType, severity models.BreachSeverity, description string, affectedDataTypes, mitigationSteps []string) (*models.BreachIncident, error) {
	incident := &models.BreachIncident{
		ID:                uuid.NewString(),
		BreachType:        breachType,
		Severity:          severity,
		Description:       description,
		AffectedDataTypes: affectedDataTypes,
		MitigationSteps:   mitigationSteps,
		Status:            models.BreachDiscovered,
		DiscoveryDate:     s.now(),
	}

	affected, err := s.affectedUserIDs(ctx, incident)
	if err != nil {
		// Scope estimation is retried at notification time; the incident
		// must still be registered.
		s.logger.Error(ctx, "affected-user estimation failed", "breach_id", incident.ID, "error", err.Error())
	} else {
		incident.AffectedUsers = len(affected)
	}

	incident, err = s.repo.Create(ctx, incident)
	if err != nil {
		return nil, fmt.Errorf("error recording breach: %w", err)
	}

	s.logger.Warn(ctx, "breach reported",
		"breach_id", incident.ID,
		"type", string(breachType),
		"severity", string(severity),
		"affected_users", incident.AffectedUsers,
	)
	return incident, nil
}

// affectedUserIDs scopes the affected set by breach type: unauthorized
// access is narrowed to users with audit activity since discovery; every
// other type conservatively widens to all users. Unknown scope must
// over-notify rather than under-notify.
func (s *BreachService) affectedUserIDs(ctx context.Context, incident *models.BreachIncident) ([]string, error) {
	if incident.BreachType == models.BreachUnauthorizedAccess {
		return s.auditLogs.ActiveUserIDsSince(ctx, incident.DiscoveryDate)
	}
	return s.users.ListIDs(ctx)
}

// SendBreachNotifications dispatches to every affected user, one at a time,
// counting successes and failures independently. The incident is then
// stamped with the notification date and advanced to notification_sent.
func (s *BreachService) SendBreachNotifications(ctx context.Context, breachID, method string) (*NotificationResult, error) {
	incident, err := s.repo.GetByID(ctx, breachID)
	if err != nil {
		return nil, err
	}

	affected, err := s.affectedUserIDs(ctx, incident)
	if err != nil {
		return nil, fmt.Errorf("scoping affected users: %w", err)
	}

	result := &NotificationResult{}
	for _, userID := range affected {
		if err := s.notifier.Notify(ctx, userID, method, incident); err != nil {
			result.Failed++
			s.logger.Error(ctx, "breach notification failed",
				"breach_id", breachID, "user", logging.HashActor(userID), "error", err.Error())
			continue
		}
		result.Sent++
	}

	if err := s.repo.RecordNotification(ctx, breachID, len(affected), result.Sent, s.now()); err != nil {
		return nil, fmt.Errorf("recording notification: %w", err)
	}
	return result, nil
}

// IsNotificationRequired applies the disclosure rule: notification becomes
// mandatory when the configured deadline (60 days by default) has elapsed
// since discovery, or immediately for critical severity. The two triggers
// are independent.
func (s *BreachService) IsNotificationRequired(ctx context.Context, breachID string) (bool, error) {
	incident, err := s.repo.GetByID(ctx, breachID)
	if err != nil {
		return false, err
	}
	if incident.Severity == models.SeverityCritical {
		return true, nil
	}
	if s.now().Sub(incident.DiscoveryDate) >= s.deadline {
		return true, nil
	}
	return false, nil
}

// UpdateStatus sets the incident status. Transitions are not restricted;
// administrative corrections (including reopening) are allowed and audited
// at the HTTP layer.
func (s *BreachService) UpdateStatus(ctx context.Context, breachID, status string) error {
	return s.repo.UpdateStatus(ctx, breachID, status, s.now())
}

// Get returns one incident.
func (s *BreachService) Get(ctx context.Context, breachID string) (*models.BreachIncident, error) {
	return s.repo.GetByID(ctx, breachID)
}

// Stats returns breach counters; errors propagate for explicit degraded
// reporting.
func (s *BreachService) Stats(ctx context.Context) (*breaches.Stats, error) {
	return s.repo.GetStats(ctx)
}
