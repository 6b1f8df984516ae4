package services

import (
	"context"

	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
)

// Notifier delivers a breach notification to one user. Implementations wrap
// email, SMS, or postal-mail providers; delivery failures are per-user and
// must not affect other recipients.
type Notifier interface {
	Notify(ctx context.Context, userID, method string, incident *models.BreachIncident) error
}

// LogNotifier is the default delivery channel: it records the notification
// through the structured log only. Used in development and as a stand-in
// until a real provider is wired.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, userID, method string, incident *models.BreachIncident) error {
	n.logger.Info(ctx, "breach notification dispatched",
		"user", logging.HashActor(userID),
		"method", method,
		"breach_id", incident.ID,
		"severity", string(incident.Severity),
	)
	return nil
}
