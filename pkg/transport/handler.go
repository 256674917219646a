package transport

import (
	"net/http"
)

// HandlerFunc is an HTTP handler that reports failure by returning an
// error instead of writing it. Errors travel back through the middleware
// chain to the single boundary installed by Handle.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h to an http.Handler. It is the one place where returned
// errors become responses: client errors are written with their own status
// and everything else is routed to sink. Handlers never need to catch
// anything themselves.
func Handle(h HandlerFunc, sink FaultSink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w}
		if err := h(rw, r); err != nil {
			WriteError(rw, r, err, sink)
		}
	})
}

// responseWriter records whether the response has started so that the
// boundary does not write a second status line.
type responseWriter struct {
	http.ResponseWriter
	status  int
	started bool
}

func (w *responseWriter) WriteHeader(status int) {
	if !w.started {
		w.status = status
		w.started = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.status = http.StatusOK
		w.started = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Started reports whether a status line has already been sent on w.
// Writers that were not produced by Handle report false.
func Started(w http.ResponseWriter) bool {
	if rw := unwrapResponseWriter(w); rw != nil {
		return rw.started
	}
	return false
}

// StatusOf returns the status written to w so far, or 0 if none.
func StatusOf(w http.ResponseWriter) int {
	if rw := unwrapResponseWriter(w); rw != nil {
		return rw.status
	}
	return 0
}

func unwrapResponseWriter(w http.ResponseWriter) *responseWriter {
	for w != nil {
		switch t := w.(type) {
		case *responseWriter:
			return t
		case interface{ Unwrap() http.ResponseWriter }:
			w = t.Unwrap()
		default:
			return nil
		}
	}
	return nil
}
