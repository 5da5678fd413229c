package internal

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

// findView resolves endpoint through the hierarchy: app registrations first,
// then the packages of the endpoint's plugin in registration order.
func (a *App) findView(endpoint string) (ViewFactory, bool) {
	if f, ok := a.views[endpoint]; ok {
		return f, true
	}
	plugin, name := splitEndpoint(endpoint)
	if plugin == "" {
		return nil, false
	}
	for _, p := range a.pluginPackages(plugin) {
		if f, ok := p.Views[name]; ok && f != nil {
			return f, true
		}
	}
	return nil, false
}

// dispatchEndpoint builds the view for endpoint and runs it. Panics raised
// by the view are returned as *PanicError.
func (a *App) dispatchEndpoint(c Context, endpoint string, args Args) (resp *Response, err error) {
	a.logger.DebugContext(c, "dispatch",
		slog.String("endpoint", endpoint),
		slog.Any("args", args),
	)

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	var vw Viewer
	if strings.Contains(endpoint, ".") {
		vw = &templateView{}
	} else {
		factory, ok := a.findView(endpoint)
		if !ok {
			return nil, NewProgrammingError("could not locate view for endpoint %q", endpoint)
		}
		vw = factory()
	}
	return processView(c, vw, viewName(endpoint), endpoint, args)
}
