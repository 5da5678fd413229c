package internal

import "net/http"

// ResponseWriter records what a request cycle sent to the client. The
// request logger reads Status and Size after the handler returns; the
// lifecycle checks Written so a response is never served twice.
//
// Hijacking and deadlines go through http.NewResponseController, which
// reaches the underlying writer via Unwrap.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

// NewResponseWriter wraps w.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w}
}

// WriteHeader sends the status line. Only the first call reaches the client.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write sends body bytes, committing a 200 status first if none was set.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Status is the status sent to the client, or 200 when nothing was sent.
func (w *ResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Size is the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the status line has been sent.
func (w *ResponseWriter) Written() bool { return w.status != 0 }

// Flush commits the status and flushes buffered data when the underlying
// writer supports it.
func (w *ResponseWriter) Flush() {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
