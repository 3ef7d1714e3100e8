package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned by Get when no object exists at the requested key.
// Both backends translate their own missing-key condition into this error.
var ErrNotFound = errors.New("object not found")

// StoreError wraps a transport-level failure from either backend. The
// original cause is preserved for diagnostics.
type StoreError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage %s failed for %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ObjectStore is the capability interface over a bucket+key blob namespace.
// Put overwrites silently. Exists never reports missing keys as an error.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// Config selects and parameterizes the backend. Backend is "s3" or "local";
// the choice is made at wiring time, never by code change.
type Config struct {
	Backend string
	Bucket  string

	// local
	BaseDir string

	// s3
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// New builds the configured backend. Both implementations are observably
// identical so the service runs without cloud credentials in development.
func New(cfg Config, logger *log.Logger) (ObjectStore, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.BaseDir, logger)
	case "s3":
		return NewS3Store(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
