package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrDecode           = errors.New("invalid audio payload")
	ErrEmptyTranscript  = errors.New("empty transcript")
	ErrEmptyTranslation = errors.New("empty translation")
	ErrStorageDisabled  = errors.New("audio storage not configured")
	ErrNotConfigured    = errors.New("capability not configured")
	ErrNotFound         = errors.New("not found")
	// ErrUnavailable marks a call refused without reaching the provider,
	// e.g. by an open circuit breaker.
	ErrUnavailable = errors.New("capability temporarily unavailable")
)
