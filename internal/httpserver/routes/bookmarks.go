package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limiter := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.IngestBurst,
		RefillPerIPPerMin: d.IngestRefillPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Auth, d.Logger))

		r.Get("/events", handlers.Events(d))
		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", handlers.ListBookmarks(d))
			r.With(limiter).Post("/", handlers.CreateBookmark(d))
			r.Delete("/{id}", handlers.DeleteBookmark(d))
		})
	})
}
