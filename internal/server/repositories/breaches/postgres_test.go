package breaches

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	discovered := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+breach_incidents.+RETURNING\s+discovery_date`).
		WithArgs("b1", models.BreachDataTheft, models.SeverityHigh, "laptop stolen",
			[]byte(`["medical_history"]`), models.BreachDiscovered, []byte(`["remote wipe"]`), 12).
		WillReturnRows(sqlmock.NewRows([]string{"discovery_date"}).AddRow(discovered))

	inc := &models.BreachIncident{
		ID:                "b1",
		BreachType:        models.BreachDataTheft,
		Severity:          models.SeverityHigh,
		Description:       "laptop stolen",
		AffectedDataTypes: []string{"medical_history"},
		MitigationSteps:   []string{"remote wipe"},
		Status:            models.BreachDiscovered,
		AffectedUsers:     12,
	}
	got, err := repo.Create(context.Background(), inc)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !got.DiscoveryDate.Equal(discovered) {
		t.Fatal("discovery date not populated from the db")
	}
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cols := []string{"id", "breach_type", "severity", "description", "affected_data_types",
		"discovery_date", "notification_date", "resolved_date", "status", "mitigation_steps",
		"affected_users", "notified_users"}
	mock.ExpectQuery(`(?s)SELECT\s+.+\s+FROM\s+breach_incidents\s+WHERE\s+id=\$1`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"b1", "data_theft", "high", "laptop stolen", []byte(`["ssn"]`),
			time.Now(), nil, nil, "investigating", []byte(`[]`), 12, 0))

	inc, err := repo.GetByID(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if len(inc.AffectedDataTypes) != 1 || inc.AffectedDataTypes[0] != "ssn" {
		t.Fatalf("affected data types not decoded: %v", inc.AffectedDataTypes)
	}
	if inc.AffectedUsers != 12 {
		t.Fatalf("affected users = %d, want 12", inc.AffectedUsers)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+breach_incidents`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestRecordNotification(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`(?s)UPDATE\s+breach_incidents\s+SET\s+affected_users=\$2,\s*notified_users=\$3,\s*notification_date=\$4,\s*status='notification_sent'`).
		WithArgs("b1", 10, 9, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordNotification(context.Background(), "b1", 10, 9, at); err != nil {
		t.Fatalf("RecordNotification error: %v", err)
	}
}

func TestGetStats_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+count`).WillReturnError(errors.New("db down"))

	if _, err := repo.GetStats(context.Background()); err == nil {
		t.Fatal("stats errors must propagate, not collapse to zeroes")
	}
}
