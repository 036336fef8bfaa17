package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/keypool"
	"github.com/MrSnakeDoc/scout/internal/logger"
)

type registerKeyRequest struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// ListKeys returns every credential with its quota ledger, secrets redacted.
func ListKeys(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.KeyPool.List())
	}
}

// RegisterKey adds a credential to the pool.
func RegisterKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", 0)
			return
		}

		if err := d.KeyPool.Register(r.Context(), req.ID, req.Secret); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), 0)
			return
		}

		d.Logger.Info("credential registered via api",
			logger.String("credential_id", req.ID))
		w.WriteHeader(http.StatusCreated)
	}
}

// RemoveKey deletes a credential from the pool.
func RemoveKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.KeyPool.Remove(r.Context(), id); err != nil {
			if errors.Is(err, keypool.ErrNotFound) {
				writeError(w, http.StatusNotFound, "credential not found", 0)
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error(), 0)
			return
		}

		d.Logger.Info("credential removed via api",
			logger.String("credential_id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
