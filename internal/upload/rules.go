package upload

import (
	"fmt"
	"strconv"
	"strings"
)

// Default rule-set, mirrored by the client package so both ends reject the
// same files.
const DefaultMaxSize = "10MB"

var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// Rules is the immutable validation rule-set. It is built once at startup and
// passed explicitly to the validator and to the upload client; there is no
// ambient/global lookup.
type Rules struct {
	allowedTypes []string // lowercased, original order kept for messages
	maxSizeBytes int64
}

// NewRules parses the human max-size string ("10MB", "512KB", "1GB", "100B")
// and normalizes the allowed MIME type list. Size units are 1024-based.
func NewRules(allowedTypes []string, maxSize string) (Rules, error) {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	normalized := make([]string, 0, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}

	maxBytes, err := ParseSize(maxSize)
	if err != nil {
		return Rules{}, err
	}

	return Rules{allowedTypes: normalized, maxSizeBytes: maxBytes}, nil
}

// MustRules is for wiring code and tests where the inputs are literals.
func MustRules(allowedTypes []string, maxSize string) Rules {
	r, err := NewRules(allowedTypes, maxSize)
	if err != nil {
		panic(err)
	}
	return r
}

// Allows reports whether the declared content type is in the allow-list.
// Matching is case-insensitive.
func (r Rules) Allows(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, t := range r.allowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// AllowedTypes returns a copy of the allow-list for error messages.
func (r Rules) AllowedTypes() []string {
	out := make([]string, len(r.allowedTypes))
	copy(out, r.allowedTypes)
	return out
}

// MaxSizeBytes returns the size ceiling in bytes.
func (r Rules) MaxSizeBytes() int64 {
	return r.maxSizeBytes
}

// ParseSize converts a size string with a B/KB/MB/GB suffix into bytes.
// A bare number is taken as bytes.
func ParseSize(s string) (int64, error) {
	size := strings.ToUpper(strings.TrimSpace(s))
	if size == "" {
		return 0, fmt.Errorf("invalid file size format: %q", s)
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(size, "KB"):
		multiplier = 1024
		size = size[:len(size)-2]
	case strings.HasSuffix(size, "MB"):
		multiplier = 1024 * 1024
		size = size[:len(size)-2]
	case strings.HasSuffix(size, "GB"):
		multiplier = 1024 * 1024 * 1024
		size = size[:len(size)-2]
	case strings.HasSuffix(size, "B"):
		size = size[:len(size)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid file size format: %q", s)
	}
	return n * multiplier, nil
}
