package domain

import "errors"

var (
	ErrAuthInvalid         = errors.New("invalid credential")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
	ErrFetchFailed         = errors.New("asset fetch failed")
	ErrStorageFailed       = errors.New("storage write failed")
	ErrSignatureInvalid    = errors.New("invalid signature")
	ErrStillProcessing     = errors.New("still processing")
)
