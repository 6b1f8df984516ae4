package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
)

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeConsentsRepo keeps an in-memory append-only ledger.
type fakeConsentsRepo struct {
	rows      []*models.ConsentRecord
	createErr error
	statsOut  *consents.Stats
	statsErr  error
}

func (f *fakeConsentsRepo) Create(ctx context.Context, rec *models.ConsentRecord) (*models.ConsentRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.rows = append(f.rows, rec)
	return rec, nil
}

func (f *fakeConsentsRepo) GetLatest(ctx context.Context, userID string, consentType models.ConsentType) (*models.ConsentRecord, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID && f.rows[i].ConsentType == consentType {
			return f.rows[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeConsentsRepo) History(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	var out []*models.ConsentRecord
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeConsentsRepo) GetStats(ctx context.Context) (*consents.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.statsOut, nil
}

func TestHasConsent_NoHistory(t *testing.T) {
	svc := NewConsentService(&fakeConsentsRepo{}, nil)

	ok, err := svc.HasConsent(context.Background(), "u1", models.ConsentHIPAANotice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no consent for a user with no history")
	}
}

func TestHasConsent_MostRecentRowWins(t *testing.T) {
	repo := &fakeConsentsRepo{}
	svc := NewConsentService(repo, nil)
	ctx := context.Background()

	if _, err := svc.RecordConsent(ctx, "u1", models.ConsentHIPAANotice, true, "1.2.3.4", "ua", nil); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	ok, _ := svc.HasConsent(ctx, "u1", models.ConsentHIPAANotice)
	if !ok {
		t.Fatal("expected consent after grant")
	}

	if _, err := svc.RevokeConsent(ctx, "u1", models.ConsentHIPAANotice, "1.2.3.4", "ua"); err != nil {
		t.Fatalf("RevokeConsent: %v", err)
	}
	ok, _ = svc.HasConsent(ctx, "u1", models.ConsentHIPAANotice)
	if ok {
		t.Fatal("expected no consent after revocation")
	}

	// Re-granting after a revocation takes effect again.
	if _, err := svc.RecordConsent(ctx, "u1", models.ConsentHIPAANotice, true, "1.2.3.4", "ua", nil); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	ok, _ = svc.HasConsent(ctx, "u1", models.ConsentHIPAANotice)
	if !ok {
		t.Fatal("expected consent after re-grant")
	}

	// The ledger kept all three rows.
	if len(repo.rows) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(repo.rows))
	}
}

func TestHasConsent_Expiry(t *testing.T) {
	repo := &fakeConsentsRepo{}
	svc := NewConsentService(repo, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := base.Add(24 * time.Hour)
	if _, err := svc.RecordConsent(ctx, "u1", models.ConsentTreatment, true, "", "", &expiry); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}

	svc.now = func() time.Time { return base }
	ok, _ := svc.HasConsent(ctx, "u1", models.ConsentTreatment)
	if !ok {
		t.Fatal("expected consent before expiry")
	}

	svc.now = func() time.Time { return expiry.Add(time.Minute) }
	ok, _ = svc.HasConsent(ctx, "u1", models.ConsentTreatment)
	if ok {
		t.Fatal("expected consent to lapse after expiry")
	}
}

func TestHasRequiredConsents(t *testing.T) {
	repo := &fakeConsentsRepo{}
	required := []models.ConsentType{models.ConsentPrivacyPolicy, models.ConsentHIPAANotice}
	svc := NewConsentService(repo, required)
	ctx := context.Background()

	res, err := svc.HasRequiredConsents(ctx, "u1")
	if err != nil {
		t.Fatalf("HasRequiredConsents: %v", err)
	}
	if res.HasAllConsents {
		t.Fatal("expected missing consents for a new user")
	}
	if len(res.MissingConsents) != 2 {
		t.Fatalf("expected 2 missing consents, got %v", res.MissingConsents)
	}

	if _, err := svc.RecordConsent(ctx, "u1", models.ConsentPrivacyPolicy, true, "", "", nil); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	res, _ = svc.HasRequiredConsents(ctx, "u1")
	if res.HasAllConsents {
		t.Fatal("expected hipaa_notice still missing")
	}
	if len(res.MissingConsents) != 1 || res.MissingConsents[0] != models.ConsentHIPAANotice {
		t.Fatalf("expected only hipaa_notice missing, got %v", res.MissingConsents)
	}

	if _, err := svc.RecordConsent(ctx, "u1", models.ConsentHIPAANotice, true, "", "", nil); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	res, _ = svc.HasRequiredConsents(ctx, "u1")
	if !res.HasAllConsents {
		t.Fatalf("expected all required consents present, missing: %v", res.MissingConsents)
	}
}
