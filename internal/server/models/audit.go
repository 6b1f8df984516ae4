package models

import "time"

// AuditLogEntry is one durable audit-trail row. Detail values are sanitized
// before the entry reaches the repository; user and IP identifiers are kept
// in clear here so breach scoping can join against users, while console log
// lines carry only their truncated hashes.
type AuditLogEntry struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	Timestamp time.Time
	IPAddress string
	UserAgent string
	Success   bool
	Details   map[string]any
}
