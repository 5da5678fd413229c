package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	if rw.Written() {
		t.Fatal("Written() = true before any write")
	}
	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.Status() != http.StatusNotFound || w.Code != http.StatusNotFound {
		t.Errorf("status = %d (client %d), want 404", rw.Status(), w.Code)
	}
	if !rw.Written() {
		t.Error("Written() = false after WriteHeader")
	}
}

func TestResponseWriter_ImplicitOK(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	_, _ = rw.Write([]byte("hello "))
	_, _ = rw.Write([]byte("world"))

	if rw.Size() != 11 {
		t.Errorf("Size() = %d, want 11", rw.Size())
	}
	if rw.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200", rw.Status())
	}
	if w.Body.String() != "hello world" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestResponseWriter_ResponseController(t *testing.T) {
	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rc := http.NewResponseController(rw)
	if err := rc.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !w.Flushed || !rw.Written() {
		t.Error("flush did not reach the recorder or commit the status")
	}
	if _, _, err := rc.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
}
