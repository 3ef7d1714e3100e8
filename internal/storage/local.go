package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const defaultBaseDir = "./data/objects"

// LocalStore is the filesystem-backed backend. Bucket and key form a path
// relative to the base directory; parent directories are created on demand.
type LocalStore struct {
	baseDir string
	logger  *log.Logger
}

func NewLocalStore(baseDir string, logger *log.Logger) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = defaultBaseDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

func (s *LocalStore) objectPath(bucket, key string) string {
	return filepath.Join(s.baseDir, bucket, filepath.FromSlash(key))
}

func (s *LocalStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	path := s.objectPath(bucket, key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StoreError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &StoreError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	s.logger.Debug("stored object on disk", "bucket", bucket, "key", key, "size", len(data))
	return nil
}

func (s *LocalStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(s.objectPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Bucket: bucket, Key: key, Err: err}
	}
	return data, nil
}

func (s *LocalStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := os.Stat(s.objectPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StoreError{Op: "exists", Bucket: bucket, Key: key, Err: err}
	}
	return true, nil
}
