package consents

import (
	"context"

	"github.com/bloomwell/telehealth/internal/server/models"
)

// Stats are the pre-aggregated consent counters feeding the compliance score.
type Stats struct {
	TotalRecords int
	ActiveGrants int
}

type Repository interface {
	// Create appends one row to the consent ledger. Existing rows are never
	// updated or deleted.
	Create(ctx context.Context, rec *models.ConsentRecord) (*models.ConsentRecord, error)

	// GetLatest returns the most recent row for (userID, consentType), or
	// common.ErrorNotFound when the user never recorded that consent.
	GetLatest(ctx context.Context, userID string, consentType models.ConsentType) (*models.ConsentRecord, error)

	// History returns all rows for a user, newest first.
	History(ctx context.Context, userID string) ([]*models.ConsentRecord, error)

	GetStats(ctx context.Context) (*Stats, error)
}
