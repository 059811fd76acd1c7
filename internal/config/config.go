// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the gallery service.
type Config struct {
	Port   string
	AppEnv string

	// AccessToken guards guest routes; AdminToken additionally guards the
	// bulk wipe. Both are static strings, validated by middleware before any
	// storage operation runs.
	AccessToken string
	AdminToken  string

	// MetadataPath is the JSON document holding the photo collection.
	MetadataPath string

	// StorageMode selects the blob backend: "local" or "cloud".
	StorageMode string

	// Local backend
	StorageRoot string
	BaseURL     string // public base URL the upload URLs are composed from

	// Cloud backend (S3-compatible: MinIO locally, ArvanCloud in production)
	StorageEndpoint string
	StorageBucket   string
	StorageRegion   string
	StorageUseSSL   bool

	// Cloud credentials: explicit keys, a JSON key file, or a base64-encoded
	// inline JSON blob. The factory resolves them in that order.
	StorageAccessKey       string
	StorageSecretKey       string
	StorageCredentialsFile string
	StorageCredentialsB64  string

	// SignedURLTTL is the validity window for presigned cloud URLs.
	SignedURLTTL time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		AccessToken: getEnv("ACCESS_TOKEN", "gallery-guest"),
		AdminToken:  getEnv("ADMIN_TOKEN", "change_me_in_production"),

		MetadataPath: getEnv("METADATA_PATH", "data/photos.json"),

		StorageMode: getEnv("STORAGE_MODE", "local"),

		StorageRoot: getEnv("STORAGE_ROOT", "data/uploads"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		StorageEndpoint: getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		StorageRegion:   getEnv("STORAGE_REGION", ""),
		StorageUseSSL:   getEnv("STORAGE_USE_SSL", "false") == "true",

		StorageAccessKey:       getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:       getEnv("STORAGE_SECRET_KEY", ""),
		StorageCredentialsFile: getEnv("STORAGE_CREDENTIALS_FILE", ""),
		StorageCredentialsB64:  getEnv("STORAGE_CREDENTIALS_B64", ""),

		SignedURLTTL: time.Duration(getEnvInt("SIGNED_URL_TTL_MINUTES", 7*24*60)) * time.Minute,
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}
