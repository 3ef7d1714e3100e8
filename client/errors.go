package client

import (
	"errors"
	"fmt"
)

// Category is the machine-readable error class UI layers branch on.
type Category string

const (
	CategoryFileSize       Category = "FILE_SIZE"
	CategoryFileType       Category = "FILE_TYPE"
	CategoryNetwork        Category = "NETWORK"
	CategoryServer         Category = "SERVER"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryNotFound       Category = "NOT_FOUND"
	CategoryCancelled      Category = "CANCELLED"
	CategoryUnknown        Category = "UNKNOWN"
)

// UploadError is the one error shape every failure is normalized into:
// validation, network, HTTP-status-mapped and cancellation alike. Raw
// transport errors stay reachable through Unwrap but are never the surface.
type UploadError struct {
	Category  Category
	Title     string
	Detail    string
	Retryable bool
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *UploadError) Unwrap() error { return e.Err }

// IsCancelled reports whether the operation failed because the caller
// cancelled it.
func IsCancelled(err error) bool {
	var uerr *UploadError
	return errors.As(err, &uerr) && uerr.Category == CategoryCancelled
}

func fileSizeError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryFileSize, Title: "File Too Large", Detail: detail, Err: cause}
}

func fileTypeError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryFileType, Title: "Invalid File Type", Detail: detail, Err: cause}
}

func networkError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryNetwork, Title: "Network Error", Detail: detail, Retryable: true, Err: cause}
}

func serverError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryServer, Title: "Server Error", Detail: detail, Retryable: true, Err: cause}
}

func authenticationError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryAuthentication, Title: "Authentication Required", Detail: detail, Err: cause}
}

func notFoundError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryNotFound, Title: "Not Found", Detail: detail, Err: cause}
}

func cancelledError(cause error) *UploadError {
	return &UploadError{Category: CategoryCancelled, Title: "Upload Cancelled", Detail: "the operation was cancelled", Err: cause}
}

func unknownError(detail string, cause error) *UploadError {
	return &UploadError{Category: CategoryUnknown, Title: "Upload Failed", Detail: detail, Err: cause}
}
