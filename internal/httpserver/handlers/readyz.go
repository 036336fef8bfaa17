package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis,omitempty"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		resp := readyzResponse{Ready: true, Redis: "ok"}
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				resp.Ready = false
				resp.Redis = "unreachable"
			}
		}

		if !resp.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
