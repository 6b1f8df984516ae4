// Package consents provides the PostgreSQL-backed append-only consent ledger.
package consents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.ConsentRecord) (*models.ConsentRecord, error) {
	query := `
		INSERT INTO patient_consent (id, user_id, consent_type, consent_given, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING consent_date
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.ConsentType, rec.ConsentGiven, rec.ExpiresAt, rec.IPAddress, rec.UserAgent,
	).Scan(&rec.ConsentDate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) GetLatest(ctx context.Context, userID string, consentType models.ConsentType) (*models.ConsentRecord, error) {
	query := `
		SELECT id, user_id, consent_type, consent_given, consent_date, expires_at, ip_address, user_agent
		FROM patient_consent
		WHERE user_id=$1 AND consent_type=$2
		ORDER BY consent_date DESC
		LIMIT 1
	`
	var rec models.ConsentRecord
	err := r.db.QueryRowContext(ctx, query, userID, consentType).Scan(
		&rec.ID, &rec.UserID, &rec.ConsentType, &rec.ConsentGiven,
		&rec.ConsentDate, &rec.ExpiresAt, &rec.IPAddress, &rec.UserAgent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRepository) History(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	query := `
		SELECT id, user_id, consent_type, consent_given, consent_date, expires_at, ip_address, user_agent
		FROM patient_consent
		WHERE user_id=$1
		ORDER BY consent_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select consents: %w", err)
	}
	defer rows.Close()

	var result []*models.ConsentRecord
	for rows.Next() {
		var rec models.ConsentRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ConsentType, &rec.ConsentGiven,
			&rec.ConsentDate, &rec.ExpiresAt, &rec.IPAddress, &rec.UserAgent,
		); err != nil {
			return nil, err
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetStats counts ledger rows and currently-active grants. "Active" means the
// newest row per (user, type) is a grant that has not expired.
func (r *PostgresRepository) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE consent_given AND (expires_at IS NULL OR expires_at > now()) AND latest)
		FROM (
			SELECT consent_given, expires_at,
				row_number() OVER (PARTITION BY user_id, consent_type ORDER BY consent_date DESC) = 1 AS latest
			FROM patient_consent
		) c
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalRecords, &s.ActiveGrants); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
