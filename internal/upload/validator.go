package upload

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyFile = errors.New("File cannot be empty")

// InvalidTypeError is returned when the declared MIME type is not in the
// allow-list. The message enumerates the allowed set.
type InvalidTypeError struct {
	ContentType string
	Allowed     []string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("Invalid file type: %s. Allowed types are: %s",
		e.ContentType, strings.Join(e.Allowed, ", "))
}

// SizeExceededError is returned when the file is larger than the configured
// ceiling. The message states both the actual and the maximum size.
type SizeExceededError struct {
	Size    int64
	MaxSize int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("File size %d bytes exceeds maximum allowed size of %d bytes",
		e.Size, e.MaxSize)
}

// FileCandidate is the in-memory view of an upload before any byte reaches
// storage: declared MIME type plus size. It is never persisted.
type FileCandidate struct {
	Name        string
	ContentType string
	Size        int64
}

// Validate checks a candidate against the rule-set. Pure, no side effects.
// Check order: emptiness, then type, then size.
func Validate(rules Rules, candidate FileCandidate) error {
	if candidate.Size == 0 {
		return ErrEmptyFile
	}
	if !rules.Allows(candidate.ContentType) {
		return &InvalidTypeError{
			ContentType: candidate.ContentType,
			Allowed:     rules.AllowedTypes(),
		}
	}
	if candidate.Size > rules.MaxSizeBytes() {
		return &SizeExceededError{Size: candidate.Size, MaxSize: rules.MaxSizeBytes()}
	}
	return nil
}
