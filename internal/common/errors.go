// Package common defines shared constants and sentinel errors used across
// the compliance platform. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("already exists")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrMFARequired         = errors.New("mfa verification required")
	ErrInvalidMFACode      = errors.New("invalid mfa code")

	// Compliance-domain errors.
	ErrUnknownDataCategory = errors.New("unknown data category")
	ErrConsentMissing      = errors.New("required consent missing")
)
