package customer

import "errors"

var (
	ErrNotFound        = errors.New("customer not found")
	ErrEmailTaken      = errors.New("email already taken")
	ErrNoChanges       = errors.New("no data changes found")
	ErrNoProfileImage  = errors.New("profile image not found")
	ErrReferenceUpdate = errors.New("failed to update profile image reference")
)
