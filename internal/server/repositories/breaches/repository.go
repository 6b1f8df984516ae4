package breaches

import (
	"context"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

// Stats are the pre-aggregated breach counters feeding the compliance score.
type Stats struct {
	TotalIncidents int
	OpenIncidents  int
}

type Repository interface {
	Create(ctx context.Context, incident *models.BreachIncident) (*models.BreachIncident, error)
	GetByID(ctx context.Context, id string) (*models.BreachIncident, error)

	// UpdateStatus sets the incident status; resolved and false_alarm also
	// stamp the resolved date.
	UpdateStatus(ctx context.Context, id string, status string, at time.Time) error

	// RecordNotification stores the affected/notified counts and stamps the
	// notification date alongside the status advance to notification_sent.
	RecordNotification(ctx context.Context, id string, affected, notified int, at time.Time) error

	GetStats(ctx context.Context) (*Stats, error)
}
