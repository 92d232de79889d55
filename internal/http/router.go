// Package httpserver wires every HTTP route: the JSON API, the OAuth flow,
// health and metrics endpoints, and the static dashboard frontend.
package httpserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/xBwomp/famCalendar/internal/api"
	"github.com/xBwomp/famCalendar/internal/auth"
	"github.com/xBwomp/famCalendar/internal/config"
	"github.com/xBwomp/famCalendar/internal/http/csrf"
	"github.com/xBwomp/famCalendar/internal/http/ratelimit"
	"github.com/xBwomp/famCalendar/internal/metrics"
	"github.com/xBwomp/famCalendar/internal/store"
)

// Handlers bundles the API handlers the router mounts.
type Handlers struct {
	Sync      *api.SyncHandler
	Calendars *api.CalendarHandler
	Events    *api.EventHandler
	Admin     *api.AdminHandler
	Seed      *api.SeedHandler
}

// FrontendDir is where the built dashboard frontend is served from.
const FrontendDir = "frontend/dist"

// NewRouter wires all HTTP routes.
func NewRouter(cfg *config.Config, st *store.Store, authService *auth.Service, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// API endpoints: 20 requests per second, burst of 50 (the dashboard polls)
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/healthz", healthHandler)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		api.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/auth/google", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/", authService.BeginOAuth)
		r.Get("/callback", authService.HandleOAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		// Read endpoints are open: the dashboard runs on a wall display
		// without a session.
		r.Get("/auth/status", authService.Status)
		r.Get("/calendars", h.Calendars.List)
		r.Get("/calendars/selected", h.Calendars.ListSelected)
		r.Get("/calendars/{id}", h.Calendars.Get)
		r.Get("/calendars/{id}/events", h.Events.ListByCalendar)
		r.Get("/events", h.Events.List)
		r.Get("/events/today", h.Events.Today)
		r.Get("/events/{id}", h.Events.Get)

		// Everything that mutates or exposes admin data requires a session.
		r.Group(func(r chi.Router) {
			r.Use(authService.RequireAdmin)
			r.Use(csrf.Middleware(cfg))

			r.Get("/auth/profile", authService.Profile)
			r.Post("/auth/logout", authService.Logout)

			r.Post("/sync/test-connection", h.Sync.TestConnection)
			r.Post("/sync/calendars", h.Sync.SyncCalendars)
			r.Post("/sync/events", h.Sync.SyncEvents)
			r.Post("/sync/full", h.Sync.SyncFull)
			r.Get("/sync/logs", h.Sync.Logs)

			r.Post("/calendars", h.Calendars.Create)
			r.Put("/calendars/{id}/toggle", h.Calendars.ToggleSelected)
			r.Delete("/calendars/{id}", h.Calendars.Delete)

			r.Post("/events", h.Events.Create)
			r.Delete("/events/{id}", h.Events.Delete)

			r.Get("/admin/settings", h.Admin.Settings)
			r.Put("/admin/settings", h.Admin.UpdateSettings)
			r.Get("/admin/display-preferences", h.Admin.DisplayPreferences)
			r.Put("/admin/display-preferences", h.Admin.UpdateDisplayPreferences)
			r.Get("/admin/last-sync-time", h.Admin.LastSyncTime)

			if !cfg.Production() {
				r.Post("/seed/sample-data", h.Seed.SampleData)
			}
		})
	})

	r.NotFound(spaHandler(FrontendDir))

	return r
}

// spaHandler serves the built frontend, falling back to index.html for
// client-side routes. API paths never reach it; chi matches those first.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			api.Error(w, http.StatusNotFound, "not found")
			return
		}

		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
