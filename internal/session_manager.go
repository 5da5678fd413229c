package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/blazeweb/pkg/cookie"
	"github.com/dmitrymomot/blazeweb/pkg/session"
)

// Default session configuration.
const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 30 * 24 * time.Hour
)

// SessionManager loads and saves the request session and builds its cookie.
type SessionManager struct {
	store      session.Store
	cookies    *cookie.Manager
	logger     *slog.Logger
	cookieName string
	maxAge     time.Duration
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
// A nil cookie manager means unsigned cookies.
func NewSessionManager(store session.Store, cookies *cookie.Manager, opts ...SessionOption) *SessionManager {
	if cookies == nil {
		cookies = cookie.New()
	}
	sm := &SessionManager{
		store:      store,
		cookies:    cookies,
		logger:     slog.New(slog.DiscardHandler),
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
	}

	for _, opt := range opts {
		opt(sm)
	}

	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the session lifetime and cookie max age.
func WithSessionMaxAge(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.maxAge = d
		}
	}
}

// WithSessionLogger sets the logger used for cookie and store problems.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(sm *SessionManager) {
		if l != nil {
			sm.logger = l
		}
	}
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

// Load returns the session named by the request cookie. A missing, tampered
// or expired cookie yields a new session; only store failures are errors.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := sm.cookies.Read(r, sm.cookieName)
	if err != nil {
		if !errors.Is(err, cookie.ErrNotFound) {
			sm.logger.DebugContext(ctx, "invalid session cookie", slog.Any("error", err))
		}
		return session.New(sm.maxAge), nil
	}

	sess, err := sm.store.Get(ctx, token)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		return session.New(sm.maxAge), nil
	default:
		return nil, err
	}
}

// Save persists sess when it is new or dirty.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	switch {
	case sess.IsNew():
		if err := sm.store.Create(ctx, sess); err != nil {
			return err
		}
		sess.ClearNew()
	case sess.IsDirty():
		if err := sm.store.Update(ctx, sess); err != nil {
			return err
		}
	default:
		return nil
	}
	sess.ClearDirty()
	return nil
}

// Cookie returns the cookie carrying the session token.
func (sm *SessionManager) Cookie(sess *session.Session) *http.Cookie {
	return sm.cookies.Make(sm.cookieName, sess.Token, sm.maxAge)
}

// Destroy deletes the session and returns the cookie clearing it.
func (sm *SessionManager) Destroy(ctx context.Context, sess *session.Session) (*http.Cookie, error) {
	if err := sm.store.Delete(ctx, sess.ID); err != nil {
		return nil, err
	}
	return sm.cookies.Expire(sm.cookieName), nil
}

// Purge removes expired sessions from the store.
func (sm *SessionManager) Purge(ctx context.Context) error {
	n, err := sm.store.Purge(ctx, time.Now())
	if err != nil {
		return err
	}
	sm.logger.InfoContext(ctx, "expired sessions purged", slog.Int64("count", n))
	return nil
}
