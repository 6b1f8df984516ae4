package repomanager

import (
	"context"
	"database/sql"

	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/bloomwell/telehealth/internal/server/repositories/breaches"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
	"github.com/bloomwell/telehealth/internal/server/repositories/mfa"
	"github.com/bloomwell/telehealth/internal/server/repositories/patients"
	"github.com/bloomwell/telehealth/internal/server/repositories/refreshtokens"
	"github.com/bloomwell/telehealth/internal/server/repositories/retention"
	"github.com/bloomwell/telehealth/internal/server/repositories/userdata"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Patients() patients.Repository
	Consents() consents.Repository
	Retention() retention.Repository
	Breaches() breaches.Repository
	MFA() mfa.Repository
	AuditLogs() auditlogs.Repository
	UserData() userdata.Repository
	RefreshTokens() refreshtokens.Repository
	Close() error
}
