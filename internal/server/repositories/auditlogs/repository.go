package auditlogs

import (
	"context"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

// Stats are the pre-aggregated audit counters feeding the compliance score.
type Stats struct {
	TotalEntries  int
	EntriesLast30 int
	FailedLast30  int
}

type Repository interface {
	// Insert appends one entry to the durable audit trail.
	Insert(ctx context.Context, entry *models.AuditLogEntry) error

	// ActiveUserIDsSince returns the distinct user IDs with audit activity at
	// or after the given time. Used to scope unauthorized-access breaches.
	ActiveUserIDsSince(ctx context.Context, since time.Time) ([]string, error)

	GetStats(ctx context.Context) (*Stats, error)
}
