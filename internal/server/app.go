// Package server initializes and runs the compliance platform: it wires the
// configuration, logging, storage, services, and the HTTP API, and handles
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bloomwell/telehealth/internal/cryptox"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/config"
	"github.com/bloomwell/telehealth/internal/server/httpapi"
	"github.com/bloomwell/telehealth/internal/server/repositories/repomanager"
	"github.com/bloomwell/telehealth/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	redacted := cfg.RedactedLogKeys
	if redacted == nil {
		redacted = logging.DefaultRedactedKeys()
	}
	secure := logging.NewSecureLogger(logger, logging.NewSanitizer(redacted))

	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey, logger)
	if err != nil {
		return nil, fmt.Errorf("field cipher init error: %w", err)
	}
	sensitive := cfg.SensitiveFields
	if sensitive == nil {
		sensitive = cryptox.DefaultSensitiveFields()
	}
	policy := cryptox.NewFieldPolicy(sensitive)

	rm, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var archiver services.Archiver
	if cfg.ArchiveBucket != "" {
		archiver = services.NewS3Archiver(cfg)
	}

	auditSvc := services.NewAuditService(rm.AuditLogs(), secure, logger)
	mfaSvc := services.NewMFAService(rm.MFA(), rm.Users(), logger)
	consentSvc := services.NewConsentService(rm.Consents(), cfg.RequiredConsents)
	userSvc := services.NewUserService(rm.Users(), rm.Patients(), mfaSvc, consentSvc,
		rm.RefreshTokens(), cipher, policy, cfg, logger)
	retentionSvc := services.NewRetentionService(rm.Conn(), rm.Retention(), rm.UserData(),
		archiver, cfg.RetentionYears, logger)
	breachSvc := services.NewBreachService(rm.Breaches(), rm.Users(), rm.AuditLogs(),
		services.NewLogNotifier(logger), cfg.BreachNotificationDeadline, logger)
	complianceSvc := services.NewComplianceService(rm.AuditLogs(), rm.Users(), rm.Patients(),
		rm.Retention(), rm.Consents(), rm.Breaches(), logger)

	api := httpapi.NewServer(userSvc, mfaSvc, consentSvc, retentionSvc, breachSvc,
		complianceSvc, auditSvc, []byte(cfg.JWTSecret), logger)

	return &App{config: cfg, logger: logger, repos: rm, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddr,
		Handler:           app.api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
