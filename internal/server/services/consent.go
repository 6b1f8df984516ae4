package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
	"github.com/google/uuid"
)

// ConsentService maintains the append-only consent ledger. History is never
// mutated: revocation inserts a consent_given=false row, and the current
// state of a (user, type) pair is always the most recent row, with expiry
// evaluated at read time.
type ConsentService struct {
	repo     consents.Repository
	required []models.ConsentType
	now      func() time.Time
}

// RequiredConsentsResult reports whether a user holds every required consent
// and which ones are missing.
type RequiredConsentsResult struct {
	HasAllConsents  bool
	MissingConsents []models.ConsentType
}

func NewConsentService(repo consents.Repository, required []models.ConsentType) *ConsentService {
	return &ConsentService{repo: repo, required: required, now: time.Now}
}

// RecordConsent appends a grant (or denial) row to the ledger.
func (s *ConsentService) RecordConsent(ctx context.Context, userID string, consentType models.ConsentType, given bool, ip, userAgent string, expiresAt *time.Time) (*models.ConsentRecord, error) {
	rec := &models.ConsentRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		ConsentType:  consentType,
		ConsentGiven: given,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
	}
	rec, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("error recording consent: %w", err)
	}
	return rec, nil
}

// RevokeConsent appends a denial row; prior rows stay untouched for audit.
func (s *ConsentService) RevokeConsent(ctx context.Context, userID string, consentType models.ConsentType, ip, userAgent string) (*models.ConsentRecord, error) {
	return s.RecordConsent(ctx, userID, consentType, false, ip, userAgent, nil)
}

// HasConsent reports the current state for (user, type): the most recent
// row must be a grant and must not have expired. A user with no history has
// no consent.
func (s *ConsentService) HasConsent(ctx context.Context, userID string, consentType models.ConsentType) (bool, error) {
	rec, err := s.repo.GetLatest(ctx, userID, consentType)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !rec.ConsentGiven || rec.Expired(s.now()) {
		return false, nil
	}
	return true, nil
}

// HasRequiredConsents checks the configured required set for a user.
func (s *ConsentService) HasRequiredConsents(ctx context.Context, userID string) (*RequiredConsentsResult, error) {
	result := &RequiredConsentsResult{HasAllConsents: true}
	for _, ct := range s.required {
		ok, err := s.HasConsent(ctx, userID, ct)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.HasAllConsents = false
			result.MissingConsents = append(result.MissingConsents, ct)
		}
	}
	return result, nil
}

// History returns the full ledger for a user, newest first.
func (s *ConsentService) History(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	return s.repo.History(ctx, userID)
}

// Stats returns consent counters; errors propagate for explicit degraded
// reporting.
func (s *ConsentService) Stats(ctx context.Context) (*consents.Stats, error) {
	return s.repo.GetStats(ctx)
}
