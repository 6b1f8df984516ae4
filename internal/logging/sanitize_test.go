package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_Value(t *testing.T) {
	s := NewSanitizer(DefaultRedactedKeys())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email masked", "janedoe@example.com", "ja***@example.com"},
		{"short local part kept", "a@example.com", "a***@example.com"},
		{"ssn with dashes", "123-45-6789", "***-**-****"},
		{"ssn without dashes", "123456789", "***-**-****"},
		{"short string untouched", "hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Value(tt.in))
		})
	}
}

func TestSanitizer_TruncatesLongStrings(t *testing.T) {
	s := NewSanitizer(nil)
	long := strings.Repeat("a", 80)
	got := s.Value(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)
}

func TestSanitizer_Map_BlocklistWinsRegardlessOfValue(t *testing.T) {
	s := NewSanitizer(DefaultRedactedKeys())
	out := s.Map(map[string]any{
		"ssn":            "not even ssn shaped",
		"MedicalHistory": "asthma",
		"visit_count":    3,
		"note":           "short",
	})
	assert.Equal(t, "[REDACTED]", out["ssn"])
	assert.Equal(t, "[REDACTED]", out["MedicalHistory"])
	assert.Equal(t, 3, out["visit_count"])
	assert.Equal(t, "short", out["note"])
}

func TestSanitizer_Map_Nested(t *testing.T) {
	s := NewSanitizer(DefaultRedactedKeys())
	out := s.Map(map[string]any{
		"patient": map[string]any{
			"email":       "janedoe@example.com",
			"medications": []string{"aspirin"},
		},
	})
	nested := out["patient"].(map[string]any)
	assert.Equal(t, "ja***@example.com", nested["email"])
	assert.Equal(t, "[REDACTED]", nested["medications"])
}

func TestHashActor(t *testing.T) {
	h := HashActor("user-42")
	assert.Len(t, h, 8)
	assert.Equal(t, h, HashActor("user-42"))
	assert.NotEqual(t, h, HashActor("user-43"))
	assert.Equal(t, "", HashActor(""))
}
