package internal

import (
	"context"
	"net/http"
	"slices"
)

// HandlerFunc is the signature of the request lifecycle and everything that
// wraps it. Returning a non-nil error hands it to the App.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect/modify the request, short-circuit processing,
// or wrap the response.
//
// Example:
//
//	func Auth(next blazeweb.HandlerFunc) blazeweb.HandlerFunc {
//	    return func(c blazeweb.Context) error {
//	        if !c.User().IsAuthenticated {
//	            return c.Redirect(302, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// HookFunc runs at a fixed point of the request lifecycle.
type HookFunc func(c Context) error

// Hooks groups lifecycle hooks. App-level hooks always run before hooks
// injected into a request.
type Hooks struct {
	RequestSetup          []HookFunc
	RequestTeardown       []HookFunc
	ResponseCycleSetup    []HookFunc
	ResponseCycleTeardown []HookFunc
}

func (h Hooks) merge(o Hooks) Hooks {
	return Hooks{
		RequestSetup:          append(slices.Clone(h.RequestSetup), o.RequestSetup...),
		RequestTeardown:       append(slices.Clone(h.RequestTeardown), o.RequestTeardown...),
		ResponseCycleSetup:    append(slices.Clone(h.ResponseCycleSetup), o.ResponseCycleSetup...),
		ResponseCycleTeardown: append(slices.Clone(h.ResponseCycleTeardown), o.ResponseCycleTeardown...),
	}
}

type hooksKey struct{}

// InjectHooks returns r carrying extra hooks for this request only. Use it
// from net/http middleware placed in front of the App:
//
//	next.ServeHTTP(w, blazeweb.InjectHooks(r, blazeweb.Hooks{
//	    RequestSetup: []blazeweb.HookFunc{loadTenant},
//	}))
func InjectHooks(r *http.Request, h Hooks) *http.Request {
	merged := injectedHooks(r.Context()).merge(h)
	return r.WithContext(context.WithValue(r.Context(), hooksKey{}, merged))
}

func injectedHooks(ctx context.Context) Hooks {
	h, _ := ctx.Value(hooksKey{}).(Hooks)
	return h
}

// runHooks calls each hook in order and stops at the first error.
func runHooks(c Context, hooks []HookFunc) error {
	for _, fn := range hooks {
		if fn == nil {
			continue
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
