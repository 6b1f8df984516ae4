package services

import (
	"context"

	"github.com/bloomwell/telehealth/internal/logging"
	"github.com/bloomwell/telehealth/internal/server/repositories/auditlogs"
	"github.com/bloomwell/telehealth/internal/server/repositories/breaches"
	"github.com/bloomwell/telehealth/internal/server/repositories/consents"
	"github.com/bloomwell/telehealth/internal/server/repositories/patients"
	"github.com/bloomwell/telehealth/internal/server/repositories/retention"
	"github.com/bloomwell/telehealth/internal/server/repositories/users"
)

// SecurityStats feeds the security slice of the score.
type SecurityStats struct {
	MFAEnabledUsers int `json:"mfa_enabled_users"`
}

// UserStats feeds the user-coverage slice of the score.
type UserStats struct {
	TotalUsers      int `json:"total_users"`
	PatientProfiles int `json:"patient_profiles"`
}

// ComplianceStats carries the six pre-aggregated buckets the scorer reads.
type ComplianceStats struct {
	Audit     auditlogs.Stats `json:"audit"`
	Security  SecurityStats   `json:"security"`
	Retention retention.Stats `json:"retention"`
	Consent   consents.Stats  `json:"consent"`
	Breach    breaches.Stats  `json:"breach"`
	Users     UserStats       `json:"users"`
}

// SectionStatus reports whether one bucket could be gathered. A section that
// could not be read contributes nothing to the score and must be shown as
// unavailable, never as "compliant with zero findings".
type SectionStatus struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ComplianceReport is the dashboard payload: the score, the raw buckets,
// and per-section availability. Degraded is set when any bucket failed.
type ComplianceReport struct {
	Score    int                      `json:"score"`
	Degraded bool                     `json:"degraded"`
	Stats    ComplianceStats          `json:"stats"`
	Sections map[string]SectionStatus `json:"sections"`
}

// ComplianceService aggregates the counters and computes the weighted score.
type ComplianceService struct {
	audit     auditlogs.Repository
	users     users.Repository
	patients  patients.Repository
	retention retention.Repository
	consents  consents.Repository
	breaches  breaches.Repository
	logger    logging.Logger
}

func NewComplianceService(audit auditlogs.Repository, userRepo users.Repository, patientRepo patients.Repository, retentionRepo retention.Repository, consentRepo consents.Repository, breachRepo breaches.Repository, logger logging.Logger) *ComplianceService {
	return &ComplianceService{
		audit:     audit,
		users:     userRepo,
		patients:  patientRepo,
		retention: retentionRepo,
		consents:  consentRepo,
		breaches:  breachRepo,
		logger:    logger,
	}
}

// Report gathers every bucket, failing closed per section: a store error
// marks that section unavailable and degrades the report instead of being
// swallowed into zeroes.
func (s *ComplianceService) Report(ctx context.Context) *ComplianceReport {
	report := &ComplianceReport{Sections: make(map[string]SectionStatus)}

	section := func(name string, err error) {
		if err != nil {
			report.Degraded = true
			report.Sections[name] = SectionStatus{Available: false, Error: err.Error()}
			s.logger.Error(ctx, "compliance section unavailable", "section", name, "error", err.Error())
			return
		}
		report.Sections[name] = SectionStatus{Available: true}
	}

	if st, err := s.audit.GetStats(ctx); err != nil {
		section("audit", err)
	} else {
		report.Stats.Audit = *st
		section("audit", nil)
	}

	mfaUsers, err := s.users.CountMFAEnabled(ctx)
	if err != nil {
		section("security", err)
	} else {
		report.Stats.Security = SecurityStats{MFAEnabledUsers: mfaUsers}
		section("security", nil)
	}

	if st, err := s.retention.GetStats(ctx); err != nil {
		section("retention", err)
	} else {
		report.Stats.Retention = *st
		section("retention", nil)
	}

	if st, err := s.consents.GetStats(ctx); err != nil {
		section("consent", err)
	} else {
		report.Stats.Consent = *st
		section("consent", nil)
	}

	if st, err := s.breaches.GetStats(ctx); err != nil {
		section("breach", err)
	} else {
		report.Stats.Breach = *st
		section("breach", nil)
	}

	totalUsers, uErr := s.users.Count(ctx)
	profiles, pErr := s.patients.Count(ctx)
	if uErr != nil {
		section("users", uErr)
	} else if pErr != nil {
		section("users", pErr)
	} else {
		report.Stats.Users = UserStats{TotalUsers: totalUsers, PatientProfiles: profiles}
		section("users", nil)
	}

	report.Score = scoreAvailableSections(&report.Stats, report.Sections)
	return report
}

// CalculateComplianceScore maps the six buckets to a 0..100 score with the
// fixed allocation 25/20/15/15/15/10. Every check is an independent
// threshold; no check reads another bucket.
func CalculateComplianceScore(stats *ComplianceStats) int {
	return auditScore(stats.Audit) +
		securityScore(stats.Security) +
		retentionScore(stats.Retention) +
		consentScore(stats.Consent) +
		breachScore(stats.Breach) +
		usersScore(stats.Users)
}

// scoreAvailableSections counts only sections that could actually be read.
// A zeroed bucket behind a store failure must not pass its absence checks
// ("no failures", "no overdue policies", "no incidents") as compliance.
func scoreAvailableSections(stats *ComplianceStats, sections map[string]SectionStatus) int {
	score := 0
	if sections["audit"].Available {
		score += auditScore(stats.Audit)
	}
	if sections["security"].Available {
		score += securityScore(stats.Security)
	}
	if sections["retention"].Available {
		score += retentionScore(stats.Retention)
	}
	if sections["consent"].Available {
		score += consentScore(stats.Consent)
	}
	if sections["breach"].Available {
		score += breachScore(stats.Breach)
	}
	if sections["users"].Available {
		score += usersScore(stats.Users)
	}
	return score
}

// Audit trail: 25.
func auditScore(s auditlogs.Stats) int {
	score := 0
	if s.TotalEntries > 0 {
		score += 10
	}
	if s.EntriesLast30 > 0 {
		score += 10
	}
	if s.FailedLast30 == 0 {
		score += 5
	}
	return score
}

// Security / MFA: 20.
func securityScore(s SecurityStats) int {
	score := 0
	if s.MFAEnabledUsers > 0 {
		score += 10
	}
	if s.MFAEnabledUsers >= 5 {
		score += 10
	}
	return score
}

// Retention: 15.
func retentionScore(s retention.Stats) int {
	score := 0
	if s.TotalPolicies > 0 {
		score += 8
	}
	if s.OverduePolicies == 0 {
		score += 7
	}
	return score
}

// Consent: 15.
func consentScore(s consents.Stats) int {
	score := 0
	if s.TotalRecords > 0 {
		score += 8
	}
	if s.ActiveGrants > 0 {
		score += 7
	}
	return score
}

// Breaches: 15, scaled down by open incidents.
func breachScore(s breaches.Stats) int {
	if s.TotalIncidents == 0 {
		return 15
	}
	if penalty := 5 * s.OpenIncidents; penalty < 15 {
		return 15 - penalty
	}
	return 0
}

// User coverage: 10.
func usersScore(s UserStats) int {
	score := 0
	if s.TotalUsers > 0 {
		score += 5
	}
	if s.PatientProfiles > 0 {
		score += 5
	}
	return score
}
