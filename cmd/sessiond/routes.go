package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func newRouter(mgr *session.Manager, b *backend, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, b.checks...))

	r.Group(func(r chi.Router) {
		r.Use(mgr.Middleware)
		r.Get("/", handleViews)
		r.Post("/login", handleLogin)
		r.Post("/logout", handleLogout)
	})

	if lister, ok := b.store.(session.Lister); ok {
		r.Get("/sessions", handleCount(lister, mgr.Config().StorePrefix))
	}

	return r
}

func handleViews(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	views, _ := sess.GetInt("views")
	views++
	if err := sess.Set("views", views); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := map[string]any{"views": views}
	if user, ok := sess.GetString("user"); ok {
		resp["user"] = user
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogin rotates the session id before storing the user, so an id
// planted before authentication is never promoted.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.FormValue("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, errMissingUser)
		return
	}

	sess := session.MustFromContext(r.Context())
	if err := sess.Regenerate(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := sess.Set("user", user); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	session.MustFromContext(r.Context()).Destroy()
	w.WriteHeader(http.StatusNoContent)
}

func handleCount(lister session.Lister, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := lister.Len(r.Context(), prefix)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": n})
	}
}

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				logger.HTTPRequest(r.Method, r.URL.Path, ww.Status()),
				logger.Duration(time.Since(started)),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
