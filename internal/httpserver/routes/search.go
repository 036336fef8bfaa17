package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/scout/internal/httpserver/mw"
)

func init() { Register(registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		TrustProxy:        d.TrustProxy,
	}))
	limited.Get("/api/search", handlers.Search(d))
	limited.Get("/api/search/export", handlers.Export(d))
	r.Get("/api/search/history", handlers.History(d))
}
