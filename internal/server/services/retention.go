package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/dbx"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/retention"
	"github.com/bloomwell/telehealth/internal/server/repositories/userdata"
	"github.com/google/uuid"
)

// BatchResult reports a best-effort batch: every due item is attempted, and
// per-item failures are collected instead of aborting the run. Processed
// plus len(Errors) always equals the number of due items.
type BatchResult struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
}

// RetentionService owns retention policies and the pull-based deletion
// batch. It is invoked by an external scheduler; there is no self-driving
// background loop here.
type RetentionService struct {
	db       *sql.DB
	repo     retention.Repository
	userData userdata.Repository
	archiver Archiver // nil disables archive-before-delete
	years    map[models.DataCategory]int
	logger   logging.Logger
	now      func() time.Time

	// txRepos builds transaction-bound repositories for the delete step.
	// Overridable in tests.
	txRepos func(tx dbx.DBTX) (retention.Repository, userdata.Repository)
}

func NewRetentionService(db *sql.DB, repo retention.Repository, userData userdata.Repository, archiver Archiver, years map[models.DataCategory]int, logger logging.Logger) *RetentionService {
	return &RetentionService{
		db:       db,
		repo:     repo,
		userData: userData,
		archiver: archiver,
		years:    years,
		logger:   logger,
		now:      time.Now,
		txRepos: func(tx dbx.DBTX) (retention.Repository, userdata.Repository) {
			return retention.NewPostgresRepository(tx), userdata.NewPostgresRepository(tx)
		},
	}
}

// CreatePolicy registers a retention policy for one user and category. The
// deletion date is fixed at creation: now plus the category's configured
// retention years, or the explicit override when given.
func (s *RetentionService) CreatePolicy(ctx context.Context, userID string, dataType models.DataCategory, yearsOverride *int) (*models.RetentionPolicy, error) {
	years, ok := s.years[dataType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownDataCategory, dataType)
	}
	if yearsOverride != nil {
		years = *yearsOverride
	}
	if years <= 0 {
		return nil, fmt.Errorf("retention years must be positive, got %d", years)
	}

	policy := &models.RetentionPolicy{
		ID:                   uuid.NewString(),
		UserID:               userID,
		DataType:             dataType,
		RetentionPeriodYears: years,
		DeletionDate:         s.now().AddDate(years, 0, 0),
		Status:               models.RetentionActive,
	}
	return s.repo.Create(ctx, policy)
}

// ScheduleDataDeletion moves a policy to scheduled_for_deletion at the given
// date, typically ahead of the computed deadline (account closure, consent
// withdrawal).
func (s *RetentionService) ScheduleDataDeletion(ctx context.Context, userID string, dataType models.DataCategory, deletionDate time.Time) error {
	return s.repo.Schedule(ctx, userID, dataType, deletionDate)
}

// DeleteUserData archives (when configured) and hard-deletes one user's rows
// in one category. The delete runs in its own transaction.
func (s *RetentionService) DeleteUserData(ctx context.Context, userID string, dataType models.DataCategory) error {
	if err := s.archiveCategory(ctx, userID, dataType); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, ud := s.txRepos(tx)
		_, err := ud.Delete(ctx, userID, dataType)
		return err
	})
}

// FindScheduledDeletions lists policies whose deletion date has passed.
func (s *RetentionService) FindScheduledDeletions(ctx context.Context) ([]*models.RetentionPolicy, error) {
	return s.repo.FindDue(ctx, s.now())
}

// ProcessScheduledDeletions attempts every due policy independently. For each:
// export, archive (when configured), then hard delete and mark the policy
// deleted in one transaction. A failing item is recorded and the batch moves
// on; the report carries the per-item outcome counts.
func (s *RetentionService) ProcessScheduledDeletions(ctx context.Context) (*BatchResult, error) {
	due, err := s.repo.FindDue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("finding due policies: %w", err)
	}

	result := &BatchResult{}
	for _, policy := range due {
		if err := s.processOne(ctx, policy); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("policy %s (%s/%s): %v", policy.ID, policy.UserID, policy.DataType, err))
			continue
		}
		result.Processed++
	}

	s.logger.Info(ctx, "retention batch finished",
		"due", len(due), "processed", result.Processed, "failed", len(result.Errors))
	return result, nil
}

func (s *RetentionService) processOne(ctx context.Context, policy *models.RetentionPolicy) error {
	if err := s.archiveCategory(ctx, policy.UserID, policy.DataType); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rp, ud := s.txRepos(tx)
		if _, err := ud.Delete(ctx, policy.UserID, policy.DataType); err != nil {
			return err
		}
		return rp.UpdateStatus(ctx, policy.ID, models.RetentionDeleted)
	})
}

func (s *RetentionService) archiveCategory(ctx context.Context, userID string, dataType models.DataCategory) error {
	if s.archiver == nil {
		return nil
	}
	payload, err := s.userData.Export(ctx, userID, dataType)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := s.archiver.Archive(ctx, userID, dataType, payload); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

// Stats returns retention counters; errors propagate for explicit degraded
// reporting.
func (s *RetentionService) Stats(ctx context.Context) (*retention.Stats, error) {
	return s.repo.GetStats(ctx)
}
