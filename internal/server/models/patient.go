package models

import (
	"time"

	"github.com/bloomwell/telehealth/internal/cryptox"
)

// PatientProfile carries the PHI columns of a patient. Sensitive fields are
// stored as encrypted triples; plaintext never reaches the repository for
// fields covered by the active field policy.
type PatientProfile struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Fields    map[string]cryptox.EncryptedField
	CreatedAt time.Time
	UpdatedAt time.Time
}
