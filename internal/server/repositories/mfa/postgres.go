// Package mfa provides the PostgreSQL-backed store for multi-factor
// authentication secrets and single-use backup codes.
package mfa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SaveSetup(ctx context.Context, setup *models.MFASetup) error {
	query := `
		INSERT INTO mfa_setup (id, user_id, secret)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET secret = EXCLUDED.secret, created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, setup.ID, setup.UserID, setup.Secret); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetSetup(ctx context.Context, userID string) (*models.MFASetup, error) {
	query := `SELECT id, user_id, secret, created_at FROM mfa_setup WHERE user_id=$1`
	var s models.MFASetup
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &s.Secret, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) ReplaceBackupCodes(ctx context.Context, userID string, codeHashes []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mfa_backup_codes WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, h := range codeHashes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO mfa_backup_codes (id, user_id, code_hash) VALUES ($1, $2, $3)`,
			uuid.NewString(), userID, h)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// ConsumeBackupCode is a single conditional UPDATE, so consumption is atomic:
// concurrent attempts with the same code race on the used_at guard and only
// one can win.
func (r *PostgresRepository) ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	query := `
		UPDATE mfa_backup_codes
		SET used_at = now()
		WHERE user_id=$1 AND code_hash=$2 AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, userID, codeHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
