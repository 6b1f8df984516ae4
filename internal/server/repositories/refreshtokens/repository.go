package refreshtokens

import (
	"context"
	"time"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type Repository interface {
	// Create stores a refresh token for a user with the given expiry.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error

	// Find returns the stored token row or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
