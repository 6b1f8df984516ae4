// Package models holds the persisted entity types shared by repositories,
// services, and the HTTP layer.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	MFAEnabled   bool
	CreatedAt    time.Time
}

const (
	RolePatient   = "patient"
	RolePhysician = "physician"
	RoleAdmin     = "admin"
)

// RefreshToken is a server-stored opaque token. It is rotated on every use
// and deleted on logout.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
