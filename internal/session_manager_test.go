package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrymomot/blazeweb/pkg/cookie"
	"github.com/dmitrymomot/blazeweb/pkg/session"
)

// failingStore fails every Get with err.
type failingStore struct {
	*session.MemoryStore
	err error
}

func (s *failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, s.err
}

func requestWithCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestSessionManager_LoadWithoutCookie(t *testing.T) {
	sm := NewSessionManager(session.NewMemoryStore(), nil)

	sess, err := sm.Load(context.Background(), requestWithCookie(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !sess.IsNew() {
		t.Error("expected a new session")
	}
}

func TestSessionManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := NewSessionManager(store, cookie.New(cookie.WithSecret("0123456789abcdef0123456789abcdef")),
		WithSessionCookieName("sid"),
		WithSessionMaxAge(time.Hour),
	)

	sess, err := sm.Load(ctx, requestWithCookie(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	sess.Set("name", "ann")
	if err := sm.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if sess.IsNew() || sess.IsDirty() {
		t.Error("saved session should be neither new nor dirty")
	}

	c := sm.Cookie(sess)
	if c.Name != "sid" {
		t.Errorf("cookie name = %q, want %q", c.Name, "sid")
	}
	if c.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d", c.MaxAge, int(time.Hour.Seconds()))
	}

	loaded, err := sm.Load(ctx, requestWithCookie(c))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != sess.ID {
		t.Errorf("loaded ID = %q, want %q", loaded.ID, sess.ID)
	}
	if v, _ := loaded.Get("name"); v != "ann" {
		t.Errorf("loaded value = %v, want ann", v)
	}
}

func TestSessionManager_SaveSkipsCleanSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := NewSessionManager(store, nil)

	sess := session.New(time.Hour)
	if err := sm.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	// Clean sessions never reach the store, so the missing record is not noticed.
	if err := sm.Save(ctx, sess); err != nil {
		t.Errorf("Save() of clean session error = %v", err)
	}

	sess.Set("k", "v")
	if err := sm.Save(ctx, sess); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Save() of dirty session error = %v, want ErrNotFound", err)
	}
}

func TestSessionManager_TamperedCookie(t *testing.T) {
	ctx := context.Background()
	sm := NewSessionManager(session.NewMemoryStore(), cookie.New(cookie.WithSecret("0123456789abcdef0123456789abcdef")))

	sess := session.New(time.Hour)
	if err := sm.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}
	c := sm.Cookie(sess)
	c.Value = "x" + c.Value

	loaded, err := sm.Load(ctx, requestWithCookie(c))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID == sess.ID {
		t.Error("tampered cookie must not load the stored session")
	}
}

func TestSessionManager_StoreFailure(t *testing.T) {
	want := errors.New("store down")
	sm := NewSessionManager(&failingStore{MemoryStore: session.NewMemoryStore(), err: want}, nil)

	c := sm.Cookie(session.New(time.Hour))
	if _, err := sm.Load(context.Background(), requestWithCookie(c)); !errors.Is(err, want) {
		t.Errorf("Load() error = %v, want %v", err, want)
	}
}

func TestSessionManager_DestroyAndPurge(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := NewSessionManager(store, nil)

	live := session.New(time.Hour)
	expired := session.New(-time.Minute)
	for _, s := range []*session.Session{live, expired} {
		if err := sm.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if err := sm.Purge(ctx); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d sessions after purge, want 1", store.Len())
	}

	c, err := sm.Destroy(ctx, live)
	if err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if c.MaxAge >= 0 {
		t.Errorf("destroy cookie MaxAge = %d, want negative", c.MaxAge)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d sessions after destroy, want 0", store.Len())
	}
}
