package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bloomwell/telehealth/internal/flagx"
	"github.com/bloomwell/telehealth/internal/server/models"
	"github.com/bloomwell/telehealth/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which parses both string
// values such as "15m" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr                 string                      `json:"endpoint_addr"`
	DatabaseDSN                  string                      `json:"database_dsn"`
	JWTSecret                    string                      `json:"jwt_secret"`
	EncryptionKey                string                      `json:"encryption_key"`
	AccessTokenValidityDuration  *timex.Duration             `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration             `json:"refresh_token_validity_duration"`
	RequiredConsents             []models.ConsentType        `json:"required_consents"`
	SensitiveFields              []string                    `json:"sensitive_fields"`
	RedactedLogKeys              []string                    `json:"redacted_log_keys"`
	RetentionYears               map[models.DataCategory]int `json:"retention_years"`
	BreachNotificationDeadline   *timex.Duration             `json:"breach_notification_deadline"`
	ArchiveRootUser              string                      `json:"archive_root_user"`
	ArchiveRootPassword          string                      `json:"archive_root_password"`
	ArchiveBucket                string                      `json:"archive_bucket"`
	ArchiveRegion                string                      `json:"archive_region"`
	ArchiveBaseEndpoint          string                      `json:"archive_base_endpoint"`
}

// parseJson loads configuration values from an optional JSON file named by
// the -c/-config flags. Absent flag means nothing to load; an unreadable or
// malformed file panics, since a requested config file that cannot be used
// is a startup-class error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.JWTSecret != "" {
		config.JWTSecret = c.JWTSecret
	}
	if c.EncryptionKey != "" {
		config.EncryptionKey = c.EncryptionKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.RequiredConsents != nil {
		config.RequiredConsents = c.RequiredConsents
	}
	if c.SensitiveFields != nil {
		config.SensitiveFields = c.SensitiveFields
	}
	if c.RedactedLogKeys != nil {
		config.RedactedLogKeys = c.RedactedLogKeys
	}
	if c.RetentionYears != nil {
		config.RetentionYears = c.RetentionYears
	}
	if c.BreachNotificationDeadline != nil {
		config.BreachNotificationDeadline = time.Duration(c.BreachNotificationDeadline.Duration)
	}
	if c.ArchiveRootUser != "" {
		config.ArchiveRootUser = c.ArchiveRootUser
	}
	if c.ArchiveRootPassword != "" {
		config.ArchiveRootPassword = c.ArchiveRootPassword
	}
	if c.ArchiveBucket != "" {
		config.ArchiveBucket = c.ArchiveBucket
	}
	if c.ArchiveRegion != "" {
		config.ArchiveRegion = c.ArchiveRegion
	}
	if c.ArchiveBaseEndpoint != "" {
		config.ArchiveBaseEndpoint = c.ArchiveBaseEndpoint
	}
}
