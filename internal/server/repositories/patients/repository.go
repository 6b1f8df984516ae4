package patients

import (
	"context"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, profile *models.PatientProfile) (*models.PatientProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.PatientProfile, error)
	UpdateFields(ctx context.Context, profile *models.PatientProfile) error
	Count(ctx context.Context) (int, error)
}
