package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidBatch     = errors.New("invalid batch request")
	ErrBatchTooLarge    = errors.New("batch exceeds maximum size")
	ErrItemTooLarge     = errors.New("item exceeds maximum size")
	ErrUnsupportedStyle = errors.New("unsupported style")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrProviderFailure  = errors.New("provider failure")
)
