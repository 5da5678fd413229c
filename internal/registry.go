package internal

import (
	"context"
	"net/http"
	"sync"

	"github.com/dmitrymomot/blazeweb/pkg/session"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Registry holds the ambient objects of one request. A fresh Registry with
// fresh RequestGlobals is bound to every request; only AG is shared.
type Registry struct {
	RG       *RequestGlobals
	AG       *AppGlobals
	Settings *settings.Settings
	User     *User
}

// Forwarded is one entry of the forward queue.
type Forwarded struct {
	Args     Args
	Endpoint string
}

// ResponseContext is the state of the current response cycle iteration.
type ResponseContext struct {
	// Response is the response views write into when they return nil or a
	// string.
	Response *Response

	// ErrorDocCode is the status being rendered when the cycle runs an
	// error doc, zero otherwise.
	ErrorDocCode int
}

func newResponseContext(errorDocCode int) *ResponseContext {
	return &ResponseContext{
		Response:     &Response{Header: make(http.Header)},
		ErrorDocCode: errorDocCode,
	}
}

// RequestGlobals is request-scoped state.
type RequestGlobals struct {
	Request      *http.Request
	Session      *session.Session
	RespCtx      *ResponseContext
	URLArgs      Args
	values       map[string]any
	hooks        Hooks
	Ident        string
	Endpoint     string
	userSnapshot string
	sessionToken string
	ForwardQueue []Forwarded
	sendCookie   bool
	mu           sync.Mutex
}

// Set stores a free-form request value.
func (rg *RequestGlobals) Set(key string, v any) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if rg.values == nil {
		rg.values = make(map[string]any)
	}
	rg.values[key] = v
}

// Get returns a free-form request value.
func (rg *RequestGlobals) Get(key string) (any, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	v, ok := rg.values[key]
	return v, ok
}

// AppGlobals is state shared by every request of one App.
type AppGlobals struct {
	App       *App
	Events    *Events
	Templates TemplateEngine
	values    sync.Map
}

func (ag *AppGlobals) Set(key string, v any) {
	ag.values.Store(key, v)
}

func (ag *AppGlobals) Get(key string) (any, bool) {
	return ag.values.Load(key)
}

type registryKey struct{}

func withRegistry(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// RegistryFrom returns the registry bound to ctx by the request lifecycle.
func RegistryFrom(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(registryKey{}).(*Registry)
	return reg, ok && reg != nil
}
