package models

import "time"

// DataCategory enumerates the data classes covered by retention policies.
// Each category maps to a concrete set of rows that DeleteUserData removes.
type DataCategory string

const (
	DataMedicalRecords DataCategory = "medical_records"
	DataAppointments   DataCategory = "appointments"
	DataMessages       DataCategory = "messages"
	DataBillingRecords DataCategory = "billing_records"
	DataAuditLogs      DataCategory = "audit_logs"
)

// Retention policy lifecycle.
const (
	RetentionActive               = "active"
	RetentionScheduledForDeletion = "scheduled_for_deletion"
	RetentionDeleted              = "deleted"
)

// RetentionPolicy records how long one user's data in one category is kept.
// DeletionDate is computed at creation time (created + retention years).
type RetentionPolicy struct {
	ID                   string
	UserID               string
	DataType             DataCategory
	RetentionPeriodYears int
	DeletionDate         time.Time
	Status               string
	CreatedAt            time.Time
}
