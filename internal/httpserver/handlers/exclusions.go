package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/logger"
)

// ListExclusions returns every excluded channel id.
func ListExclusions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := d.Store.ListExcluded(r.Context())
		if err != nil {
			d.Logger.Error("failed to list exclusions",
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list exclusions", 0)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ids)
	}
}

// AddExclusion puts a channel id on the exclusion list.
func AddExclusion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.Store.Exclude(r.Context(), id); err != nil {
			d.Logger.Error("failed to exclude channel",
				logger.String("channel_id", id),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to exclude channel", 0)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// RemoveExclusion takes a channel id off the exclusion list.
func RemoveExclusion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.Store.Unexclude(r.Context(), id); err != nil {
			d.Logger.Error("failed to unexclude channel",
				logger.String("channel_id", id),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to unexclude channel", 0)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
