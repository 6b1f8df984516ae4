package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	redactedMarker = "[REDACTED]"
	maxValueLen    = 50
	actorHashLen   = 8
)

var (
	emailRe = regexp.MustCompile(`^([^@\s]+)@([^@\s]+)$`)
	ssnRe   = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
)

// Sanitizer rewrites values before they reach any log sink. Detection is
// string-pattern based: emails are partially masked, SSN-shaped strings are
// fully masked, long strings are truncated, and any map key on the blocklist
// is replaced wholesale regardless of value.
type Sanitizer struct {
	blocked map[string]struct{}
}

// DefaultRedactedKeys is the baseline blocklist for wholesale redaction.
func DefaultRedactedKeys() []string {
	return []string{
		"ssn",
		"medicalHistory",
		"medical_history",
		"medications",
		"allergies",
		"conditions",
		"diagnosis",
		"password",
		"secret",
		"backup_codes",
	}
}

// NewSanitizer builds a sanitizer with the given key blocklist. Matching is
// case-insensitive.
func NewSanitizer(redactedKeys []string) *Sanitizer {
	m := make(map[string]struct{}, len(redactedKeys))
	for _, k := range redactedKeys {
		m[strings.ToLower(k)] = struct{}{}
	}
	return &Sanitizer{blocked: m}
}

// Value sanitizes a single string: email masking, SSN masking, truncation.
func (s *Sanitizer) Value(v string) string {
	if ssnRe.MatchString(v) {
		return "***-**-****"
	}
	if m := emailRe.FindStringSubmatch(v); m != nil {
		local := m[1]
		if len(local) > 2 {
			local = local[:2]
		}
		return local + "***@" + m[2]
	}
	if len(v) > maxValueLen {
		return v[:maxValueLen] + "..."
	}
	return v
}

// Map sanitizes a detail map. Blocklisted keys are redacted wholesale;
// remaining string values go through Value; nested maps recurse; everything
// else is formatted and then treated as a string.
func (s *Sanitizer) Map(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, blocked := s.blocked[strings.ToLower(k)]; blocked {
			out[k] = redactedMarker
			continue
		}
		switch t := v.(type) {
		case string:
			out[k] = s.Value(t)
		case map[string]any:
			out[k] = s.Map(t)
		case nil, bool, int, int32, int64, float32, float64:
			out[k] = t
		default:
			out[k] = s.Value(fmt.Sprintf("%v", t))
		}
	}
	return out
}

// HashActor one-way pseudonymizes a user or IP identifier with a truncated
// SHA-256 (8 hex chars). Not reversible; lets repeated events from the same
// actor correlate without recovering the identity from logs. The narrow hash
// space means collisions are possible across very large populations.
func HashActor(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:actorHashLen]
}
