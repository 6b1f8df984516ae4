// Package userdata implements category-dispatched export and hard deletion
// of user rows for the retention scheduler.
package userdata

import (
	"context"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/server/models"
)

// categoryTables maps each retention category to its backing table. Table
// names are fixed here, never taken from input.
var categoryTables = map[models.DataCategory]string{
	models.DataMedicalRecords: "patient_profiles",
	models.DataAppointments:   "appointments",
	models.DataMessages:       "messages",
	models.DataBillingRecords: "billing_records",
	models.DataAuditLogs:      "audit_logs",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Export(ctx context.Context, userID string, category models.DataCategory) ([]byte, error) {
	table, ok := categoryTables[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownDataCategory, category)
	}
	query := fmt.Sprintf(`SELECT coalesce(json_agg(t), '[]') FROM %s t WHERE user_id=$1`, table)
	var out []byte
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&out); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, category models.DataCategory) (int64, error) {
	table, ok := categoryTables[category]
	if !ok {
		return 0, fmt.Errorf("%w: %s", common.ErrUnknownDataCategory, category)
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id=$1`, table), userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
