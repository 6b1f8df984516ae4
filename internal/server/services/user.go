package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/cryptox"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/auth"
	sc "github.com/bloomwell/telehealth/internal/server/config"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/patients"
	"github.com/bloomwell/telehealth/internal/server/repositories/refreshtokens"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and the server-stored
// refresh token that rotates on every use.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService handles registration, login (with the optional MFA step),
// refresh-token rotation, and the encrypted patient profile.
type UserService struct {
	repo            users.Repository
	patients        patients.Repository
	mfa             *MFAService
	consents        *ConsentService
	refresh         refreshtokens.Repository
	cipher          *cryptox.FieldCipher
	policy          cryptox.FieldPolicy
	jwtSecret       []byte
	tokenValidity   time.Duration
	refreshValidity time.Duration
	logger          logging.Logger
}

func NewUserService(repo users.Repository, patientRepo patients.Repository, mfaService *MFAService, consentService *ConsentService, refreshRepo refreshtokens.Repository, cipher *cryptox.FieldCipher, policy cryptox.FieldPolicy, cfg *sc.Config, logger logging.Logger) *UserService {
	return &UserService{
		repo:            repo,
		patients:        patientRepo,
		mfa:             mfaService,
		consents:        consentService,
		refresh:         refreshRepo,
		cipher:          cipher,
		policy:          policy,
		jwtSecret:       []byte(cfg.JWTSecret),
		tokenValidity:   cfg.AccessTokenValidityDuration,
		refreshValidity: cfg.RefreshTokenValidityDuration,
		logger:          logger,
	}
}

// Register creates an account with an argon2id password hash.
func (s *UserService) Register(ctx context.Context, email, password, role string) (*models.User, error) {
	if role == "" {
		role = models.RolePatient
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and, when the account has MFA enabled, the
// one-time code. A correct password without a code yields ErrMFARequired so
// the client can prompt for the second factor.
func (s *UserService) Login(ctx context.Context, email, password, mfaCode string) (*TokenPair, *models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, nil, common.ErrorUnauthorized
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return nil, nil, common.ErrMFARequired
		}
		ok, err := s.mfa.VerifyCode(ctx, user.ID, mfaCode)
		if err != nil {
			return nil, nil, common.ErrorInternal
		}
		if !ok {
			return nil, nil, common.ErrInvalidMFACode
		}
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh validates and rotates a refresh token: the presented token is
// deleted and a fresh pair is issued. An unknown token is unauthorized, an
// expired one yields ErrRefreshTokenExpired.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refresh.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if stored.ExpiresAt.Before(time.Now()) {
		if err := s.refresh.Delete(ctx, refreshToken); err != nil {
			s.logger.Error(ctx, "expired refresh token cleanup failed", "error", err.Error())
		}
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return nil, common.ErrorInternal
	}
	return s.issueTokens(ctx, user)
}

// Logout invalidates a refresh token. The access token stays valid until it
// expires on its own.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return common.ErrorInternal
	}
	return nil
}

func (s *UserService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.refresh.Create(ctx, user.ID, refresh, time.Now().Add(s.refreshValidity)); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveProfile encrypts the policy-covered fields and upserts the patient
// profile. Plaintext PHI never reaches the repository, and nothing is
// stored until the user holds every required consent.
func (s *UserService) SaveProfile(ctx context.Context, userID, firstName, lastName string, fields map[string]string) (*models.PatientProfile, error) {
	consent, err := s.consents.HasRequiredConsents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !consent.HasAllConsents {
		return nil, fmt.Errorf("%w: %v", common.ErrConsentMissing, consent.MissingConsents)
	}

	existing, err := s.patients.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	profileID := uuid.NewString()
	if existing != nil {
		profileID = existing.ID
	}

	plain, enc, err := s.cipher.EncryptRecord(profileID, fields, s.policy)
	if err != nil {
		return nil, fmt.Errorf("encrypting profile fields: %w", err)
	}
	if len(plain) > 0 {
		// Fields outside the policy are not persisted on the profile; the
		// profile row carries names plus the encrypted map only.
		s.logger.Warn(ctx, "profile fields outside encryption policy dropped", "count", len(plain))
	}

	profile := &models.PatientProfile{
		ID:        profileID,
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		Fields:    enc,
	}
	if existing != nil {
		if err := s.patients.UpdateFields(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	return s.patients.Create(ctx, profile)
}

// GetProfile returns the decrypted field map alongside the profile row.
// Fields failing authentication come back empty per the cipher contract.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.PatientProfile, map[string]string, error) {
	profile, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	decrypted := s.cipher.DecryptRecord(profile.ID, nil, profile.Fields)
	return profile, decrypted, nil
}
