package internal

import (
	"errors"
	"fmt"
	"html"
	"net/http"
)

var (
	ErrNotInRequest      = errors.New("blazeweb: no request context")
	ErrRouteNotFound     = errors.New("blazeweb: no route for endpoint")
	ErrMissingURLArg     = errors.New("blazeweb: missing url argument")
	ErrTemplateNotFound  = errors.New("blazeweb: template not found")
	ErrJobsNotConfigured = errors.New("blazeweb: job queue not configured")
	ErrUnknownSession    = errors.New("blazeweb: unknown session type")
	ErrInvalidPosition   = errors.New("blazeweb: invalid call method position")
	ErrTargetNotFound    = errors.New("blazeweb: call method target not found")
)

// HTTPError is an error that translates to an HTTP response. It is the Go
// counterpart of an HTTP exception: views return it, error docs may replace
// its page, and otherwise Page is served.
type HTTPError struct {
	// Err is the underlying cause. It is logged, never shown.
	Err error

	// Response replaces the generated page when set.
	Response *Response

	// Message is a plain-text description shown on the page.
	Message string

	// Title overrides the status text in the page heading.
	Title string

	// Detail is trusted HTML shown instead of Message.
	Detail string

	RequestID string

	Code int
}

func (e *HTTPError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// Page returns the response served for the error when no error doc handles it.
func (e *HTTPError) Page() *Response {
	if e.Response != nil {
		return e.Response
	}

	title := e.Title
	if title == "" {
		title = http.StatusText(e.Code)
	}
	desc := e.Detail
	if desc == "" {
		msg := e.Message
		if msg == "" {
			msg = describeStatus(e.Code)
		}
		desc = "<p>" + html.EscapeString(msg) + "</p>"
	}

	body := fmt.Sprintf("<!DOCTYPE HTML PUBLIC \"-//W3C//DTD HTML 3.2 Final//EN\">\n"+
		"<title>%d %s</title>\n<h1>%s</h1>\n%s\n",
		e.Code, html.EscapeString(title), html.EscapeString(title), desc)
	return NewResponse(e.Code, body, "text/html; charset=utf-8")
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithTitle(title string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Title = title
	}
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func WithResponse(r *Response) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Response = r
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusMethodNotAllowed, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

func IsHTTPError(err error) bool {
	return AsHTTPError(err) != nil
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// ProgrammingError reports a mistake in application code, such as an unknown
// endpoint or a forward loop. It is handled like any other unexpected error.
type ProgrammingError struct {
	Msg string
}

func (e *ProgrammingError) Error() string {
	return e.Msg
}

func NewProgrammingError(format string, args ...any) *ProgrammingError {
	return &ProgrammingError{Msg: fmt.Sprintf(format, args...)}
}

// PanicError carries a recovered panic value and the stack where it happened.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

var statusDescriptions = map[int]string{
	http.StatusBadRequest:          "The browser (or proxy) sent a request that this server could not understand.",
	http.StatusUnauthorized:        "The server could not verify that you are authorized to access the URL requested.",
	http.StatusForbidden:           "You don't have the permission to access the requested resource.",
	http.StatusNotFound:            "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.",
	http.StatusMethodNotAllowed:    "The method is not allowed for the requested URL.",
	http.StatusGone:                "The requested URL is no longer available on this server and there is no forwarding address.",
	http.StatusInternalServerError: "The server encountered an internal error and was unable to complete your request. Either the server is overloaded or there is an error in the application.",
	http.StatusServiceUnavailable:  "The server is temporarily unable to service your request due to maintenance downtime or capacity problems. Please try again later.",
}

func describeStatus(code int) string {
	if d, ok := statusDescriptions[code]; ok {
		return d
	}
	return http.StatusText(code)
}
