package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrStaleStatus   = errors.New("status changed since it was read")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid role")
	ErrBrandInactive = errors.New("brand is not active")
)
