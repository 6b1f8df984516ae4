package models

import "time"

// ConsentType enumerates the consent categories tracked per user.
type ConsentType string

const (
	ConsentPrivacyPolicy   ConsentType = "privacy_policy"
	ConsentHIPAANotice     ConsentType = "hipaa_notice"
	ConsentTreatment       ConsentType = "treatment"
	ConsentMarketing       ConsentType = "marketing"
	ConsentDataSharing     ConsentType = "data_sharing"
	ConsentTelehealthVisit ConsentType = "telehealth_visit"
)

// ConsentRecord is one row of the append-only consent ledger. History is
// never mutated: granting and revoking both insert a new row, and the
// current state of a (user, type) pair is the most recent row.
type ConsentRecord struct {
	ID           string
	UserID       string
	ConsentType  ConsentType
	ConsentGiven bool
	ConsentDate  time.Time
	ExpiresAt    *time.Time
	IPAddress    string
	UserAgent    string
}

// Expired reports whether the record carries an expiry in the past at now.
func (r *ConsentRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
