package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"customerhub/internal/upload"
)

const (
	defaultPort           = "8080"
	defaultJWTTTL         = "24h"
	defaultStorageBackend = "local"
	defaultBucket         = "customer"
)

// Config is the process configuration, loaded once at startup and immutable
// afterwards. Values are passed explicitly to constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	StorageBackend string // "s3" or "local"
	StorageBucket  string
	StorageBaseDir string
	AWSRegion      string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PathStyle    bool

	UploadRules upload.Rules
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", defaultPort),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StorageBackend: getEnv("STORAGE_BACKEND", defaultStorageBackend),
		StorageBucket:  getEnv("STORAGE_BUCKET", defaultBucket),
		StorageBaseDir: os.Getenv("STORAGE_BASE_DIR"),
		AWSRegion:      os.Getenv("AWS_REGION"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3PathStyle:    strings.EqualFold(os.Getenv("S3_FORCE_PATH_STYLE"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", defaultJWTTTL))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	rules, err := upload.NewRules(
		splitList(os.Getenv("UPLOAD_ALLOWED_TYPES")),
		getEnv("UPLOAD_MAX_SIZE", upload.DefaultMaxSize),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid upload configuration: %w", err)
	}
	cfg.UploadRules = rules

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
