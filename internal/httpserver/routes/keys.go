package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/scout/internal/httpserver/mw"
)

func init() { Register(registerKeys) }

func registerKeys(r chi.Router, d deps.Deps) {
	admin := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	admin.Get("/api/keys", handlers.ListKeys(d))
	admin.Post("/api/keys", handlers.RegisterKey(d))
	admin.Delete("/api/keys/{id}", handlers.RemoveKey(d))
}
