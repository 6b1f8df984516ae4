// Package retention provides the PostgreSQL-backed store for data retention
// policies.
package retention

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const policyColumns = `id, user_id, data_type, retention_period_years, deletion_date, status, created_at`

func (r *PostgresRepository) Create(ctx context.Context, policy *models.RetentionPolicy) (*models.RetentionPolicy, error) {
	query := `
		INSERT INTO data_retention (id, user_id, data_type, retention_period_years, deletion_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		policy.ID, policy.UserID, policy.DataType, policy.RetentionPeriodYears, policy.DeletionDate, policy.Status,
	).Scan(&policy.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return policy, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.RetentionPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM data_retention WHERE id=$1`
	var p models.RetentionPolicy
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.DataType, &p.RetentionPeriodYears, &p.DeletionDate, &p.Status, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) Schedule(ctx context.Context, userID string, dataType models.DataCategory, deletionDate time.Time) error {
	query := `
		UPDATE data_retention
		SET deletion_date=$3, status=$4
		WHERE user_id=$1 AND data_type=$2 AND status <> $5
	`
	res, err := r.db.ExecContext(ctx, query, userID, dataType, deletionDate,
		models.RetentionScheduledForDeletion, models.RetentionDeleted)
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

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE data_retention SET status=$2 WHERE id=$1`, id, status)
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

func (r *PostgresRepository) FindDue(ctx context.Context, now time.Time) ([]*models.RetentionPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM data_retention
		WHERE deletion_date <= $1 AND status IN ($2, $3)
		ORDER BY deletion_date`
	rows, err := r.db.QueryContext(ctx, query, now, models.RetentionActive, models.RetentionScheduledForDeletion)
	if err != nil {
		return nil, fmt.Errorf("failed to select due policies: %w", err)
	}
	defer rows.Close()

	var result []*models.RetentionPolicy
	for rows.Next() {
		var p models.RetentionPolicy
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.DataType, &p.RetentionPeriodYears, &p.DeletionDate, &p.Status, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE deletion_date <= now() AND status <> 'deleted'),
			count(*) FILTER (WHERE status = 'deleted')
		FROM data_retention
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalPolicies, &s.OverduePolicies, &s.DeletedPolicies); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
