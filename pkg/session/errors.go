package session

import "errors"

// Session errors.
var (
	// ErrNotConfigured is returned when sessions are disabled in settings.
	ErrNotConfigured = errors.New("session: not configured")

	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrUnknownStore is returned for an unsupported "session.type".
	ErrUnknownStore = errors.New("session: unknown store type")

	// ErrTypeMismatch is returned by Value when the stored value has another type.
	ErrTypeMismatch = errors.New("session: type mismatch")
)
