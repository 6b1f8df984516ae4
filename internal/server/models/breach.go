package models

import "time"

// BreachType enumerates the recognized categories of breach incidents.
type BreachType string

const (
	BreachUnauthorizedAccess BreachType = "unauthorized_access"
	BreachDataTheft          BreachType = "data_theft"
	BreachSystemCompromise   BreachType = "system_compromise"
	BreachInsiderThreat      BreachType = "insider_threat"
	BreachAccidentalExposure BreachType = "accidental_exposure"
)

// BreachSeverity tiers, lowest to highest.
type BreachSeverity string

const (
	SeverityLow      BreachSeverity = "low"
	SeverityMedium   BreachSeverity = "medium"
	SeverityHigh     BreachSeverity = "high"
	SeverityCritical BreachSeverity = "critical"
)

// Breach incident statuses.
const (
	BreachDiscovered       = "discovered"
	BreachInvestigating    = "investigating"
	BreachNotificationSent = "notification_sent"
	BreachResolved         = "resolved"
	BreachFalseAlarm       = "false_alarm"
)

// BreachIncident is a recorded data-exposure event with its investigation
// and notification bookkeeping.
type BreachIncident struct {
	ID                string
	BreachType        BreachType
	Severity          BreachSeverity
	Description       string
	AffectedDataTypes []string
	DiscoveryDate     time.Time
	NotificationDate  *time.Time
	ResolvedDate      *time.Time
	Status            string
	MitigationSteps   []string
	AffectedUsers     int
	NotifiedUsers     int
}
