// Package breaches provides the PostgreSQL-backed breach incident register.
// Array-valued columns (affected data types, mitigation steps) are stored as
// JSONB.
package breaches

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *PostgresRepository) Create(ctx context.Context, incident *models.BreachIncident) (*models.BreachIncident, error) {
	dataTypes, err := json.Marshal(incident.AffectedDataTypes)
	if err != nil {
		return nil, fmt.Errorf("marshal affected data types: %w", err)
	}
	steps, err := json.Marshal(incident.MitigationSteps)
	if err != nil {
		return nil, fmt.Errorf("marshal mitigation steps: %w", err)
	}

	query := `
		INSERT INTO breach_incidents
			(id, breach_type, severity, description, affected_data_types, status, mitigation_steps, affected_users)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING discovery_date
	`
	err = r.db.QueryRowContext(ctx, query,
		incident.ID, incident.BreachType, incident.Severity, incident.Description,
		dataTypes, incident.Status, steps, incident.AffectedUsers,
	).Scan(&incident.DiscoveryDate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return incident, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.BreachIncident, error) {
	query := `
		SELECT id, breach_type, severity, description, affected_data_types, discovery_date,
			notification_date, resolved_date, status, mitigation_steps, affected_users, notified_users
		FROM breach_incidents WHERE id=$1
	`
	var (
		inc       models.BreachIncident
		dataTypes []byte
		steps     []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inc.ID, &inc.BreachType, &inc.Severity, &inc.Description, &dataTypes, &inc.DiscoveryDate,
		&inc.NotificationDate, &inc.ResolvedDate, &inc.Status, &steps, &inc.AffectedUsers, &inc.NotifiedUsers,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(dataTypes, &inc.AffectedDataTypes); err != nil {
		return nil, fmt.Errorf("unmarshal affected data types: %w", err)
	}
	if err := json.Unmarshal(steps, &inc.MitigationSteps); err != nil {
		return nil, fmt.Errorf("unmarshal mitigation steps: %w", err)
	}
	return &inc, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status string, at time.Time) error {
	query := `
		UPDATE breach_incidents
		SET status=$2,
			resolved_date = CASE WHEN $2 IN ('resolved', 'false_alarm') THEN $3 ELSE resolved_date END
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, query, id, status, at)
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

func (r *PostgresRepository) RecordNotification(ctx context.Context, id string, affected, notified int, at time.Time) error {
	query := `
		UPDATE breach_incidents
		SET affected_users=$2, notified_users=$3, notification_date=$4, status='notification_sent'
		WHERE id=$1
	`
	res, err := r.db.ExecContext(ctx, query, id, affected, notified, at)
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

func (r *PostgresRepository) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE status NOT IN ('resolved', 'false_alarm'))
		FROM breach_incidents
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalIncidents, &s.OpenIncidents); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
