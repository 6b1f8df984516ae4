package retention

import (
	"context"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

// Stats are the pre-aggregated retention counters feeding the compliance score.
type Stats struct {
	TotalPolicies   int
	OverduePolicies int
	DeletedPolicies int
}

type Repository interface {
	Create(ctx context.Context, policy *models.RetentionPolicy) (*models.RetentionPolicy, error)
	GetByID(ctx context.Context, id string) (*models.RetentionPolicy, error)

	// Schedule moves a (user, category) policy to scheduled_for_deletion with
	// the given deletion date.
	Schedule(ctx context.Context, userID string, dataType models.DataCategory, deletionDate time.Time) error

	// UpdateStatus sets the lifecycle status of one policy.
	UpdateStatus(ctx context.Context, id string, status string) error

	// FindDue returns policies whose deletion date has passed and that are
	// still awaiting deletion (active or scheduled_for_deletion).
	FindDue(ctx context.Context, now time.Time) ([]*models.RetentionPolicy, error)

	GetStats(ctx context.Context) (*Stats, error)
}
