package userdata

import (
	"context"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type Repository interface {
	// Export returns all of a user's rows in the category as a JSON array,
	// for archival before a retention hard delete.
	Export(ctx context.Context, userID string, category models.DataCategory) ([]byte, error)

	// Delete hard-deletes the user's rows in the category and returns the
	// number of rows removed. Unknown categories return
	// common.ErrUnknownDataCategory rather than silently doing nothing.
	Delete(ctx context.Context, userID string, category models.DataCategory) (int64, error)
}
