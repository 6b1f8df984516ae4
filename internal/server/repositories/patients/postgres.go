// Package patients provides the PostgreSQL-backed store for patient
// profiles. PHI columns arrive already encrypted and are persisted as a
// JSONB map of encrypted triples.
package patients

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/cryptox"
	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, profile *models.PatientProfile) (*models.PatientProfile, error) {
	fields, err := json.Marshal(profile.Fields)
	if err != nil {
		return nil, fmt.Errorf("marshal encrypted fields: %w", err)
	}
	query := `
		INSERT INTO patient_profiles (id, user_id, first_name, last_name, encrypted_fields)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		profile.ID, profile.UserID, profile.FirstName, profile.LastName, fields,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.PatientProfile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, encrypted_fields, created_at, updated_at
		FROM patient_profiles WHERE user_id=$1
	`
	var (
		p      models.PatientProfile
		fields []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &fields, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Fields = map[string]cryptox.EncryptedField{}
	if err := json.Unmarshal(fields, &p.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal encrypted fields: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, profile *models.PatientProfile) error {
	fields, err := json.Marshal(profile.Fields)
	if err != nil {
		return fmt.Errorf("marshal encrypted fields: %w", err)
	}
	query := `
		UPDATE patient_profiles
		SET first_name=$2, last_name=$3, encrypted_fields=$4, updated_at=now()
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, query, profile.ID, profile.FirstName, profile.LastName, fields)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM patient_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
