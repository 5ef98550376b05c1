package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrNumerical        = errors.New("numerical error")
	ErrStoreUnavailable = errors.New("store unavailable")
)
