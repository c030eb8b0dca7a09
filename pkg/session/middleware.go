package session

import (
	"net/http"
)

// Middleware loads the session into the request context and commits it
// right before the response header goes out, or after the handler returns
// if it wrote nothing.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.Load(r)
		r = r.WithContext(WithSession(r.Context(), session))

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() {
			// Errors are already logged and passed to the error handler.
			_ = m.Commit(r.Context(), w, session)
		}

		next.ServeHTTP(cw, r)
		cw.flushCommit()
	})
}

// commitWriter runs commit once, before the first header or body write.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) flushCommit() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *commitWriter) WriteHeader(status int) {
	w.flushCommit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.flushCommit()
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *commitWriter) Flush() {
	w.flushCommit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
