package models

import "time"

// MFASetup is a user's multi-factor configuration. The TOTP secret is
// persisted; backup codes are persisted only as hashes in their own table
// and the plaintext codes exist solely in the setup response.
type MFASetup struct {
	ID        string
	UserID    string
	Secret    string
	CreatedAt time.Time
}

// BackupCode is one single-use recovery code. Consumption stamps UsedAt via
// a conditional update so two concurrent attempts cannot both succeed.
type BackupCode struct {
	ID        string
	UserID    string
	CodeHash  string
	UsedAt    *time.Time
	CreatedAt time.Time
}
