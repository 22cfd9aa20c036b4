package domain

import "errors"

var (
	// ErrValidation marks a malformed request. Nothing was attempted.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a failed read or write of the holdings store.
	ErrStore = errors.New("holdings store failure")
)
