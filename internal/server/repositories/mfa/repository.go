package mfa

import (
	"context"

	"github.com/bloomwell/telehealth/internal/server/models"
)

type Repository interface {
	// SaveSetup upserts the TOTP secret for a user (re-running setup rotates
	// the secret).
	SaveSetup(ctx context.Context, setup *models.MFASetup) error

	// GetSetup returns the user's MFA configuration or common.ErrorNotFound.
	GetSetup(ctx context.Context, userID string) (*models.MFASetup, error)

	// ReplaceBackupCodes deletes any existing codes for the user and inserts
	// the given hashes as fresh unused codes.
	ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string) error

	// ConsumeBackupCode atomically marks the matching unused code as used.
	// Returns false when no unused code matches; a second consume of the
	// same code therefore fails.
	ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error)
}
