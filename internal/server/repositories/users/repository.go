package users

import (
	"context"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetMFAEnabled(ctx context.Context, id string, enabled bool) error
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	CountMFAEnabled(ctx context.Context) (int, error)
}
