package internal

import (
	"encoding/json"
	"slices"
	"sync"
)

// sessionUserKey is the session value holding the serialized user.
const sessionUserKey = "__blazeweb_user"

// Message is a one-shot notice shown to the user on a later page.
type Message struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

func (m Message) String() string {
	return m.Severity + ": " + m.Text
}

// User is the per-session user. Anonymous until the application calls
// Authenticate; it is stored in the session between requests.
type User struct {
	mu sync.Mutex

	Attrs           map[string]any `json:"attrs,omitempty"`
	ID              string         `json:"id,omitempty"`
	Perms           []string       `json:"perms,omitempty"`
	Messages        []Message      `json:"messages,omitempty"`
	IsSuperUser     bool           `json:"is_super_user,omitempty"`
	IsAuthenticated bool           `json:"is_authenticated,omitempty"`
}

// NewUser returns an anonymous user.
func NewUser() *User {
	return &User{Attrs: make(map[string]any)}
}

// Authenticate marks the user as logged in with id.
func (u *User) Authenticate(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ID = id
	u.IsAuthenticated = true
}

// Clear logs the user out, dropping attributes and permissions but keeping
// pending messages.
func (u *User) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ID = ""
	u.IsAuthenticated = false
	u.IsSuperUser = false
	u.Perms = nil
	u.Attrs = make(map[string]any)
}

func (u *User) SetAttr(key string, v any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Attrs == nil {
		u.Attrs = make(map[string]any)
	}
	u.Attrs[key] = v
}

func (u *User) Attr(key string) (any, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.Attrs[key]
	return v, ok
}

// AddPerm grants permissions.
func (u *User) AddPerm(perms ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range perms {
		if !slices.Contains(u.Perms, p) {
			u.Perms = append(u.Perms, p)
		}
	}
}

// HasPerm reports whether the user holds perm. Super users hold every
// permission.
func (u *User) HasPerm(perm string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.IsSuperUser || slices.Contains(u.Perms, perm)
}

// AddMessage queues a message for display.
func (u *User) AddMessage(severity, text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Messages = append(u.Messages, Message{Severity: severity, Text: text})
}

// GetMessages returns the queued messages and clears the queue.
func (u *User) GetMessages() []Message {
	u.mu.Lock()
	defer u.mu.Unlock()
	msgs := u.Messages
	u.Messages = nil
	return msgs
}

func (u *User) marshal() (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalUser(s string) (*User, error) {
	u := NewUser()
	if err := json.Unmarshal([]byte(s), u); err != nil {
		return nil, err
	}
	if u.Attrs == nil {
		u.Attrs = make(map[string]any)
	}
	return u, nil
}
