package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"reflect"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/blazeweb/pkg/health"
)

// Route maps a chi pattern to an endpoint. Defaults are merged under the
// matched URL arguments.
type Route struct {
	Defaults Args
	Pattern  string
	Endpoint string
	Methods  []string
}

// Rule is shorthand for a Route without defaults.
func Rule(pattern, endpoint string, methods ...string) Route {
	return Route{Pattern: pattern, Endpoint: endpoint, Methods: methods}
}

// matchFunc resolves the endpoint and URL arguments of a request.
type matchFunc func(c Context) (string, Args, error)

// collectRoutes returns the app routes followed by the routes of enabled
// plugins, taken from the first package of each plugin that declares any.
func (a *App) collectRoutes() []Route {
	routes := slices.Clone(a.routes)
	for _, name := range a.pluginNames() {
		for _, p := range a.pluginPackages(name) {
			if len(p.Routes) > 0 {
				routes = append(routes, p.Routes...)
				break
			}
		}
	}
	return routes
}

// setupRoutes builds the chi router from settings, routes and static files.
func (a *App) setupRoutes() {
	r := chi.NewRouter()
	if !a.settings.Bool("routing.strict_slashes", true) {
		r.Use(middleware.StripSlashes)
	}

	r.NotFound(a.routeHandler(func(Context) (string, Args, error) {
		return "", nil, ErrNotFound("")
	}))
	r.MethodNotAllowed(a.routeHandler(func(Context) (string, Args, error) {
		return "", nil, ErrMethodNotAllowed("")
	}))

	if a.settings.Bool("static_files.enabled", true) {
		if fsys := a.staticFiles(); fsys != nil {
			prefix := "/" + strings.Trim(a.settings.String("static_files.prefix", "/static/"), "/")
			r.Mount(prefix, http.StripPrefix(prefix, staticHandler(fsys)))
		}
	}

	if a.health != nil {
		r.Get(a.settings.String("health.liveness_path", "/health/live"), health.LivenessHandler())
		r.Get(a.settings.String("health.readiness_path", "/health/ready"), a.health.ReadinessHandler())
	}

	a.routeTable = a.collectRoutes()
	mount := func(sub chi.Router) {
		seen := map[string]bool{}
		for _, rt := range a.routeTable {
			a.addRoute(sub, rt, seen)
		}
	}
	if prefix := a.prefix(); prefix != "" {
		r.Route(prefix, mount)
	} else {
		mount(r)
	}

	a.router = r
}

// addRoute registers rt unless an earlier route took the same pattern and
// method.
func (a *App) addRoute(r chi.Router, rt Route, seen map[string]bool) {
	h := a.routeHandler(func(c Context) (string, Args, error) {
		args := rt.Defaults.Clone()
		if rctx := chi.RouteContext(c.Request().Context()); rctx != nil {
			for i, k := range rctx.URLParams.Keys {
				if k == "*" && rctx.URLParams.Values[i] == "" {
					continue
				}
				args[k] = rctx.URLParams.Values[i]
			}
		}
		return rt.Endpoint, args, nil
	})

	methods := rt.Methods
	if len(methods) == 0 {
		methods = []string{"*"}
	}
	if slices.ContainsFunc(methods, func(m string) bool { return strings.EqualFold(m, http.MethodGet) }) {
		methods = append(slices.Clone(methods), http.MethodHead)
	}
	for _, m := range methods {
		m = strings.ToUpper(m)
		if m != "*" {
			if key := m + " " + rt.Pattern; !seen[key] {
				seen[key] = true
				r.Method(m, rt.Pattern, h)
			}
			continue
		}

		// A route without methods takes whatever an earlier route on the
		// same pattern left free.
		free := slices.DeleteFunc(slices.Clone(routeMethods), func(m string) bool {
			return seen[m+" "+rt.Pattern]
		})
		for _, fm := range routeMethods {
			seen[fm+" "+rt.Pattern] = true
		}
		if len(free) == len(routeMethods) {
			r.Handle(rt.Pattern, h)
			continue
		}
		for _, fm := range free {
			r.Method(fm, rt.Pattern, h)
		}
	}
}

// routeMethods are the methods a route without a method list answers.
var routeMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodOptions, http.MethodConnect, http.MethodTrace,
}

func (a *App) prefix() string {
	p := strings.Trim(a.settings.String("routing.prefix", ""), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// URLFor builds the path of endpoint from its first route whose URL
// arguments are all available. Arguments not used by the pattern, and not
// equal to a route default, become the query string.
func (a *App) URLFor(endpoint string, args Args) (string, error) {
	var lastErr error
	for _, rt := range a.routeTable {
		if rt.Endpoint != endpoint {
			continue
		}
		u, err := buildURL(rt, args)
		if err != nil {
			lastErr = err
			continue
		}
		return a.prefix() + u, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %s", ErrRouteNotFound, endpoint)
}

func buildURL(rt Route, args Args) (string, error) {
	rest := args.Clone()
	var b strings.Builder
	pattern := rt.Pattern

	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			end := closingBrace(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("blazeweb: malformed route pattern %q", pattern)
			}
			name, _, _ := strings.Cut(pattern[i+1:end], ":")
			v, ok := rest[name]
			if !ok {
				v, ok = rt.Defaults[name]
			}
			if !ok || v == nil {
				return "", fmt.Errorf("%w: %q for %s", ErrMissingURLArg, name, rt.Endpoint)
			}
			b.WriteString(url.PathEscape(fmt.Sprint(v)))
			delete(rest, name)
			i = end
		case '*':
			if v, ok := rest["*"]; ok {
				b.WriteString(fmt.Sprint(v))
				delete(rest, "*")
			}
		default:
			b.WriteByte(pattern[i])
		}
	}

	query := url.Values{}
	for k, v := range rest {
		if def, ok := rt.Defaults[k]; ok && reflect.DeepEqual(def, v) {
			continue
		}
		switch t := v.(type) {
		case nil:
		case []string:
			query[k] = append(query[k], t...)
		case []any:
			for _, item := range t {
				query.Add(k, fmt.Sprint(item))
			}
		default:
			query.Add(k, fmt.Sprint(t))
		}
	}

	out := b.String()
	if out == "" {
		out = "/"
	}
	if len(query) > 0 {
		out += "?" + query.Encode()
	}
	return out, nil
}

func closingBrace(pattern string, open int) int {
	depth := 0
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// staticFiles returns the hierarchy of static files, nil when there are none.
func (a *App) staticFiles() fs.FS {
	sf := &staticFS{app: a.static, plugins: map[string][]fs.FS{}}
	for _, name := range a.pluginNames() {
		for _, p := range a.pluginPackages(name) {
			if p.Static != nil {
				sf.plugins[name] = append(sf.plugins[name], p.Static)
			}
		}
	}
	if sf.app == nil && len(sf.plugins) == 0 {
		return nil
	}
	return sf
}

// staticFS serves "<plugin>/<file>" from the app files first, then from the
// plugin packages in order.
type staticFS struct {
	app     fs.FS
	plugins map[string][]fs.FS
}

func (s *staticFS) Open(name string) (fs.File, error) {
	if s.app != nil {
		f, err := s.app.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	plugin, rest, ok := strings.Cut(name, "/")
	if !ok {
		rest = "."
	}
	for _, fsys := range s.plugins[plugin] {
		f, err := fsys.Open(path.Clean(rest))
		if err == nil {
			return f, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// staticHandler serves files without directory listings.
func staticHandler(fsys fs.FS) http.Handler {
	fileServer := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		fileServer.ServeHTTP(w, r)
	})
}
