// Package auditlogs provides the durable PostgreSQL sink for the audit trail.
package auditlogs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, user_id, action, resource, ts, ip_address, user_agent, success, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	// An anonymous request carries no user ID; store NULL, not "".
	var userID sql.NullString
	if entry.UserID != "" {
		userID = sql.NullString{String: entry.UserID, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, userID, entry.Action, entry.Resource, entry.Timestamp,
		entry.IPAddress, entry.UserAgent, entry.Success, details,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ActiveUserIDsSince(ctx context.Context, since time.Time) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM audit_logs WHERE user_id IS NOT NULL AND ts >= $1`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select active users: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
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
			count(*) FILTER (WHERE ts >= now() - interval '30 days'),
			count(*) FILTER (WHERE NOT success AND ts >= now() - interval '30 days')
		FROM audit_logs
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalEntries, &s.EntriesLast30, &s.FailedLast30); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
