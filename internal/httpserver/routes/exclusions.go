package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/httpserver/handlers"
)

func init() { Register(registerExclusions) }

func registerExclusions(r chi.Router, d deps.Deps) {
	r.Get("/api/exclusions", handlers.ListExclusions(d))
	r.Post("/api/exclusions/{id}", handlers.AddExclusion(d))
	r.Delete("/api/exclusions/{id}", handlers.RemoveExclusion(d))
}
