package internal

import (
	"context"
	"io"
	"net/http"
	"strconv"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Response is the outcome of a response cycle: a status, headers and either
// a buffered body or a handler that writes the body itself.
type Response struct {
	Header  http.Header
	handler http.Handler
	Body    []byte
	Status  int
}

// NewResponse creates a buffered response.
func NewResponse(status int, body, contentType string) *Response {
	r := &Response{Status: status, Header: make(http.Header), Body: []byte(body)}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

// HandlerResponse wraps a handler. Headers set on the Response are copied
// to the writer before the handler runs. The status is left unset so the
// handler (or an error doc) decides it.
func HandlerResponse(h http.Handler) *Response {
	return &Response{Header: make(http.Header), handler: h}
}

// ComponentResponse serves a component as text/html.
func ComponentResponse(c Component) *Response {
	r := HandlerResponse(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := c.Render(req.Context(), w); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}))
	r.Header.Set("Content-Type", "text/html; charset=utf-8")
	return r
}

// Write appends p to the body, so a Response can be rendered into.
func (r *Response) Write(p []byte) (int, error) {
	r.Body = append(r.Body, p...)
	return len(p), nil
}

// SetBody replaces the body.
func (r *Response) SetBody(s string) {
	r.Body = []byte(s)
}

// Text returns the buffered body.
func (r *Response) Text() string {
	return string(r.Body)
}

// Handler returns the wrapped handler, nil for buffered responses.
func (r *Response) Handler() http.Handler {
	return r.handler
}

// Serve writes the response.
func (r *Response) Serve(w http.ResponseWriter, req *http.Request) {
	h := w.Header()
	for k, v := range r.Header {
		h[k] = append(h[k], v...)
	}

	if r.handler != nil {
		if r.Status != 0 && r.Status != http.StatusOK {
			w = &statusOverride{ResponseWriter: w, status: r.Status}
		}
		r.handler.ServeHTTP(w, req)
		return
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(status)
	if req.Method != http.MethodHead {
		_, _ = w.Write(r.Body)
	}
}

// statusOverride applies a status chosen outside the handler when the
// handler itself leaves the default.
type statusOverride struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusOverride) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	if code == http.StatusOK {
		code = s.status
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusOverride) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusOverride) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
