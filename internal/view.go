package internal

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Call stack positions accepted by InsertCallMethod.
const (
	Before = "before"
	After  = "after"
)

const initResponseMethod = "init_response"

// errSendResponse stops the call stack and responds with the current
// retval or response.
var errSendResponse = errors.New("blazeweb: send response")

// CallMethod is a call stack entry. It runs before the action, in stack order.
type CallMethod func(c Context, args Args) error

// Action answers a request for a view.
type Action func(c Context, args Args) (any, error)

// Viewer is implemented by structs embedding View.
type Viewer interface {
	view() *View
}

// ViewFactory creates a fresh view for each dispatch.
type ViewFactory func() Viewer

// Initializer is implemented by views that set up processors or call
// methods before arguments are processed.
type Initializer interface {
	Init(c Context) error
}

type GetHandler interface {
	Get(c Context, args Args) (any, error)
}

type PostHandler interface {
	Post(c Context, args Args) (any, error)
}

// XHRHandler answers XMLHttpRequest and HTMX requests ahead of Get/Post.
type XHRHandler interface {
	XHR(c Context, args Args) (any, error)
}

// DefaultHandler answers any method without a dedicated action.
type DefaultHandler interface {
	Default(c Context, args Args) (any, error)
}

type callMethod struct {
	fn   CallMethod
	name string
}

// View is embedded in application views:
//
//	type ShowArticle struct {
//	    blazeweb.View
//	}
//
//	func (v *ShowArticle) Init(c blazeweb.Context) error {
//	    v.AddProcessor("id", blazeweb.IntArg, blazeweb.Required())
//	    return nil
//	}
//
//	func (v *ShowArticle) Get(c blazeweb.Context, args blazeweb.Args) (any, error) {
//	    return v.RenderTemplate("", map[string]any{"id": args["id"]})
//	}
type View struct {
	c          Context
	args       Args
	retval     any
	name       string
	endpoint   string
	callStack  []callMethod
	processors []*argProcessor
	hasRetval  bool

	// StrictArgs turns every invalid argument into a 400.
	StrictArgs bool
}

func (v *View) view() *View { return v }

func (v *View) Context() Context { return v.c }

func (v *View) Args() Args { return v.args }

// Name returns the registered view name.
func (v *View) Name() string { return v.name }

// Endpoint returns the endpoint the view was dispatched for.
func (v *View) Endpoint() string { return v.endpoint }

// Response returns the response of the current response cycle.
func (v *View) Response() *Response {
	if v.c == nil || v.c.RespCtx() == nil {
		return nil
	}
	return v.c.RespCtx().Response
}

// SetRetval sets the value responded with, overriding what the action returns.
func (v *View) SetRetval(val any) {
	v.retval = val
	v.hasRetval = true
}

func (v *View) Retval() any { return v.retval }

// SendResponse returns the signal that skips the rest of the call stack and
// the action.
func (v *View) SendResponse() error {
	return errSendResponse
}

func (v *View) ensureStack() {
	if len(v.callStack) == 0 {
		v.callStack = append(v.callStack, callMethod{name: initResponseMethod, fn: v.initResponse})
	}
}

// AddCallMethod appends fn to the call stack. A nil fn is kept as a
// placeholder and skipped when the stack runs.
func (v *View) AddCallMethod(name string, fn CallMethod) {
	v.ensureStack()
	v.callStack = append(v.callStack, callMethod{name: name, fn: fn})
}

// InsertCallMethod places fn before or after the entry named target.
func (v *View) InsertCallMethod(name, position, target string, fn CallMethod) error {
	v.ensureStack()
	if position != Before && position != After {
		return fmt.Errorf("%w: position %q not valid", ErrInvalidPosition, position)
	}
	idx := slices.IndexFunc(v.callStack, func(m callMethod) bool { return m.name == target })
	if idx < 0 {
		return fmt.Errorf("%w: target %q was not found in the callstack", ErrTargetNotFound, target)
	}
	if position == After {
		idx++
	}
	v.callStack = slices.Insert(v.callStack, idx, callMethod{name: name, fn: fn})
	return nil
}

// CallStack returns the names of the call stack entries in order.
func (v *View) CallStack() []string {
	v.ensureStack()
	names := make([]string, len(v.callStack))
	for i, m := range v.callStack {
		names[i] = m.name
	}
	return names
}

// AddProcessor validates the argument name with p. A nil p accepts any value.
func (v *View) AddProcessor(name string, p Processor, opts ...ProcessorOption) {
	ap := &argProcessor{name: name, p: p}
	for _, opt := range opts {
		opt(ap)
	}
	v.processors = append(v.processors, ap)
}

// ExpectGetArgs accepts the named query arguments unvalidated.
func (v *View) ExpectGetArgs(names ...string) {
	for _, n := range names {
		v.AddProcessor(n, nil)
	}
}

// RenderTemplate renders name, or "<endpoint>.html" when name is empty.
func (v *View) RenderTemplate(name string, data map[string]any) (string, error) {
	if name == "" {
		name = v.endpoint + ".html"
	}
	return v.c.RenderTemplate(name, data)
}

func (v *View) initResponse(c Context, _ Args) error {
	resp := c.RespCtx().Response
	if resp.Header.Get("Content-Type") == "" {
		charset := c.Settings().String("default_charset", "utf-8")
		resp.Header.Set("Content-Type", "text/html; charset="+charset)
	}
	return nil
}

// processView runs one dispatch of vw.
func processView(c Context, vw Viewer, name, endpoint string, args Args) (*Response, error) {
	v := vw.view()
	v.c, v.name, v.endpoint, v.args = c, name, endpoint, args.Clone()
	v.ensureStack()

	if in, ok := vw.(Initializer); ok {
		if err := in.Init(c); err != nil {
			return nil, err
		}
	}
	if err := v.processArgs(); err != nil {
		return nil, err
	}

	for _, m := range v.callStack {
		if m.fn == nil {
			continue
		}
		if err := m.fn(c, v.args); err != nil {
			if errors.Is(err, errSendResponse) {
				return v.respond()
			}
			return nil, err
		}
	}

	action := selectAction(c, vw)
	if action == nil {
		return nil, NewProgrammingError("there were no \"action\" methods on the view class %q. Expecting Get(), Post() or Default()", name)
	}
	ret, err := action(c, v.args)
	if err != nil {
		if errors.Is(err, errSendResponse) {
			return v.respond()
		}
		return nil, err
	}
	if !v.hasRetval {
		v.retval = ret
	}
	return v.respond()
}

func selectAction(c Context, vw Viewer) Action {
	if c.IsXHR() {
		if h, ok := vw.(XHRHandler); ok {
			return h.XHR
		}
	}
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead:
		if h, ok := vw.(GetHandler); ok {
			return h.Get
		}
	case http.MethodPost:
		if h, ok := vw.(PostHandler); ok {
			return h.Post
		}
	}
	if h, ok := vw.(DefaultHandler); ok {
		return h.Default
	}
	return nil
}

// respond converts the retval into a Response.
func (v *View) respond() (*Response, error) {
	switch r := v.retval.(type) {
	case nil:
		return v.Response(), nil
	case string:
		resp := v.Response()
		resp.SetBody(r)
		return resp, nil
	case []byte:
		resp := v.Response()
		resp.Body = r
		return resp, nil
	case *Response:
		return r, nil
	case Component:
		return ComponentResponse(r), nil
	case http.Handler:
		return HandlerResponse(r), nil
	default:
		return nil, fmt.Errorf("View %q returned a value with an unexpected type: %T", v.name, r)
	}
}

// funcView adapts a plain function to a view.
type funcView struct {
	View
	fn Action
}

func (f *funcView) Default(c Context, args Args) (any, error) {
	return f.fn(c, args)
}

// ViewFunc wraps fn as a view answering every method.
func ViewFunc(fn func(c Context, args Args) (any, error)) ViewFactory {
	return func() Viewer { return &funcView{fn: fn} }
}

// templateView renders endpoints naming a template with the args as data.
type templateView struct {
	View
}

func (t *templateView) Default(c Context, args Args) (any, error) {
	out, err := c.RenderTemplate(t.endpoint, map[string]any(args))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// viewName returns the part of endpoint after the plugin prefix.
func viewName(endpoint string) string {
	if i := strings.LastIndexByte(endpoint, ':'); i >= 0 {
		return endpoint[i+1:]
	}
	return endpoint
}
