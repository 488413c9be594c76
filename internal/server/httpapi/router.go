// Package httpapi exposes the chat server over HTTP: the JSON API, the
// WebSocket endpoint, health and Prometheus metrics.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authenticator guards routes; guard.SessionGuard implements it.
type Authenticator interface {
	Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler
}

type Deps struct {
	Users    UserAPI
	Messages MessageAPI
	Guard    Authenticator
	// Socket serves the real-time endpoint.
	Socket   http.Handler
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Cookies  CookieConfig
	Logger   logging.Logger
}

// NewRouter builds the chi route tree.
func NewRouter(d Deps) http.Handler {
	h := &handlers{
		users:    d.Users,
		messages: d.Messages,
		cookies:  d.Cookies,
		logger:   d.Logger.With("module", "http"),
	}
	protect := d.Guard.Middleware(h.fail)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe(d.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.Socket != nil {
		r.Handle("/ws", d.Socket)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Post("/logout", h.logout)
			r.Put("/update-profile-picture", h.updateProfilePicture)
			r.Get("/check-auth", h.checkAuth)
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(protect)
		r.Get("/users", h.listUsers)
		r.Get("/{id}", h.history)
		r.Post("/send/{id}", h.send)
	})

	return r
}

// observe records request count and latency by route pattern.
func observe(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}
