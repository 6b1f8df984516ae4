package config

import (
	"os"

	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto the config. A .env file in
// the working directory is loaded first if present; real environment
// variables take precedence over it, which godotenv.Load guarantees by
// never overwriting existing values.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.JWTSecret = v
	}
	if v, ok := os.LookupEnv("ENCRYPTION_KEY"); ok {
		config.EncryptionKey = v
	}
	if v, ok := os.LookupEnv("ARCHIVE_ROOT_USER"); ok {
		config.ArchiveRootUser = v
	}
	if v, ok := os.LookupEnv("ARCHIVE_ROOT_PASSWORD"); ok {
		config.ArchiveRootPassword = v
	}
	if v, ok := os.LookupEnv("ARCHIVE_BUCKET"); ok {
		config.ArchiveBucket = v
	}
	if v, ok := os.LookupEnv("ARCHIVE_REGION"); ok {
		config.ArchiveRegion = v
	}
	if v, ok := os.LookupEnv("ARCHIVE_BASE_ENDPOINT"); ok {
		config.ArchiveBaseEndpoint = v
	}
}
