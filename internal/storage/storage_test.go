package storage

import (
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackendFromConfig(t *testing.T) {
	logger := log.New(io.Discard)

	store, err := New(Config{Backend: "local", BaseDir: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	store, err = New(Config{Backend: "s3", Bucket: "customer", Region: "eu-west-1"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	_, err = New(Config{Backend: "ftp"}, logger)
	assert.Error(t, err)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	store, err := New(Config{BaseDir: t.TempDir()}, log.New(io.Discard))
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)))
	assert.True(t, isNotFound(awserr.New("NotFound", "not found", nil)))
	assert.False(t, isNotFound(awserr.New("AccessDenied", "denied", nil)))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestStoreError_PreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := &StoreError{Op: "put", Bucket: "customer", Key: "k", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "put")
	assert.Contains(t, err.Error(), "customer/k")
}
