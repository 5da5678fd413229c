package settings

import "errors"

var (
	// ErrProfileNotFound is returned when the requested profile is missing
	// from the settings document.
	ErrProfileNotFound = errors.New("settings: profile not found")

	// ErrInvalidDocument is returned when a settings document can't be decoded.
	ErrInvalidDocument = errors.New("settings: invalid document")
)
