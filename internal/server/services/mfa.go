package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/server/repositories/mfa"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10
	backupCodeBytes = 4 // 8 hex chars
	totpIssuer      = "BloomWell"
)

// MFASetupResult is returned once at setup time; the plaintext backup codes
// are never recoverable afterwards.
type MFASetupResult struct {
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"otpauth_url"`
	BackupCodes []string `json:"backup_codes"`
}

// MFAService issues TOTP secrets and backup codes and verifies login codes.
// TOTP follows RFC 6238 (30-second step, 6 digits) and interoperates with
// standard authenticator apps. Backup codes are single-use: consumption is
// one conditional update in the store, so concurrent attempts with the same
// code cannot both succeed.
type MFAService struct {
	repo   mfa.Repository
	users  users.Repository
	logger logging.Logger
}

func NewMFAService(repo mfa.Repository, userRepo users.Repository, logger logging.Logger) *MFAService {
	return &MFAService{repo: repo, users: userRepo, logger: logger}
}

// Setup generates a fresh TOTP secret and ten 8-hex-char backup codes for
// the user, replacing any previous configuration, and flags the account as
// MFA-enabled.
func (s *MFAService) Setup(ctx context.Context, userID string) (*MFASetupResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generation: %w", err)
	}

	if err := s.repo.SaveSetup(ctx, &models.MFASetup{
		ID:     uuid.NewString(),
		UserID: userID,
		Secret: key.Secret(),
	}); err != nil {
		return nil, err
	}

	codes := make([]string, 0, backupCodeCount)
	hashes := make([]string, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		code, err := common.MakeRandHexString(backupCodeBytes)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
		hashes = append(hashes, hashBackupCode(code))
	}
	if err := s.repo.ReplaceBackupCodes(ctx, userID, hashes); err != nil {
		return nil, err
	}

	if err := s.users.SetMFAEnabled(ctx, userID, true); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "mfa enabled", "user", logging.HashActor(userID))
	return &MFASetupResult{
		Secret:      key.Secret(),
		OTPAuthURL:  key.URL(),
		BackupCodes: codes,
	}, nil
}

// VerifyCode accepts either a current TOTP code or an unused backup code.
// A backup code is consumed on success; presenting the same one again
// returns false.
func (s *MFAService) VerifyCode(ctx context.Context, userID, code string) (bool, error) {
	setup, err := s.repo.GetSetup(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if totp.Validate(code, setup.Secret) {
		return true, nil
	}

	return s.repo.ConsumeBackupCode(ctx, userID, hashBackupCode(code))
}

// Enabled reports whether the user has completed MFA setup.
func (s *MFAService) Enabled(ctx context.Context, userID string) (bool, error) {
	_, err := s.repo.GetSetup(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func hashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
