// Package repomanager wires the per-entity repositories to one shared
// PostgreSQL connection pool and applies embedded migrations on startup.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bloomwell/telehealth/internal/server/migrations"
	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/bloomwell/telehealth/internal/server/repositories/breaches"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
	"github.com/bloomwell/telehealth/internal/server/repositories/mfa"
	"github.com/bloomwell/telehealth/internal/server/repositories/patients"
	"github.com/bloomwell/telehealth/internal/server/repositories/refreshtokens"
	"github.com/bloomwell/telehealth/internal/server/repositories/retention"
	"github.com/bloomwell/telehealth/internal/server/repositories/userdata"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	db        *sql.DB
	users     users.Repository
	patients  patients.Repository
	consents  consents.Repository
	retention retention.Repository
	breaches  breaches.Repository
	mfa       mfa.Repository
	auditLogs auditlogs.Repository
	userData  userdata.Repository
	refresh   refreshtokens.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB { return m.db }
func (m *PostgresRepositoryManager) Users() users.Repository { return m.users }
func (m *PostgresRepositoryManager) Patients() patients.Repository { return m.patients }
func (m *PostgresRepositoryManager) Consents() consents.Repository { return m.consents }
func (m *PostgresRepositoryManager) Retention() retention.Repository { return m.retention }
func (m *PostgresRepositoryManager) Breaches() breaches.Repository { return m.breaches }
func (m *PostgresRepositoryManager) MFA() mfa.Repository { return m.mfa }
func (m *PostgresRepositoryManager) AuditLogs() auditlogs.Repository { return m.auditLogs }
func (m *PostgresRepositoryManager) UserData() userdata.Repository { return m.userData }
func (m *PostgresRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refresh }
func (m *PostgresRepositoryManager) Close() error { return m.db.Close() }

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:        db,
		users:     users.NewPostgresRepository(db),
		patients:  patients.NewPostgresRepository(db),
		consents:  consents.NewPostgresRepository(db),
		retention: retention.NewPostgresRepository(db),
		breaches:  breaches.NewPostgresRepository(db),
		mfa:       mfa.NewPostgresRepository(db),
		auditLogs: auditlogs.NewPostgresRepository(db),
		userData:  userdata.NewPostgresRepository(db),
		refresh:   refreshtokens.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}
