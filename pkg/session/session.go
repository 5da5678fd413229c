package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side bag of values bound to a cookie token.
type Session struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`

	dirty bool
	isNew bool
}

// New creates a session with fresh random ID and token.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Token:        NewToken(),
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(ttl),
		dirty:        true,
		isNew:        true,
	}
}

// NewToken returns a random cookie token.
func NewToken() string {
	return uuid.NewString() + uuid.NewString()[:8]
}

// Set stores a value and marks the session dirty.
func (s *Session) Set(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Delete removes key. The session becomes dirty only if the key existed.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// Clear removes every value.
func (s *Session) Clear() {
	if len(s.Values) == 0 {
		return
	}
	s.Values = make(map[string]any)
	s.dirty = true
}

// Regenerate issues a new token, keeping the values. Use after login to
// prevent fixation.
func (s *Session) Regenerate() {
	s.Token = NewToken()
	s.dirty = true
}

// Touch extends the expiry by ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.LastActiveAt = now
	s.ExpiresAt = now.Add(ttl)
	s.dirty = true
}

func (s *Session) IsDirty() bool { return s.dirty }
func (s *Session) MarkDirty()    { s.dirty = true }
func (s *Session) ClearDirty()   { s.dirty = false }
func (s *Session) IsNew() bool   { return s.isNew }
func (s *Session) ClearNew()     { s.isNew = false }

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns the value under key as T.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w for key %q", ErrTypeMismatch, key)
	}
	return typed, nil
}

// ValueOr is Value with a fallback.
func ValueOr[T any](s *Session, key string, def T) T {
	v, err := Value[T](s, key)
	if err != nil {
		return def
	}
	return v
}
