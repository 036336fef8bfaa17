package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
)

type componentStatus struct {
	OK              bool   `json:"ok"`
	CredentialCount *int   `json:"credential_count,omitempty"`
	UsableCount     *int   `json:"usable_count,omitempty"`
	Mode            string `json:"mode,omitempty"`
	Impact          string `json:"impact,omitempty"`
	Error           string `json:"error,omitempty"`
}

type infraResponse struct {
	SearchMode string                     `json:"search_mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the operational state of the credential pool and storage.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		creds := d.KeyPool.List()
		total := len(creds)
		usable := 0
		for _, c := range creds {
			if c.Usable() {
				usable++
			}
		}

		components := map[string]componentStatus{
			"keypool": {
				OK:              usable > 0,
				CredentialCount: &total,
				UsableCount:     &usable,
			},
			"redis": checkRedis(d),
		}

		response := infraResponse{
			SearchMode: determineSearchMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineSearchMode(components map[string]componentStatus) string {
	// No usable credential = searches will fail with quota exhausted
	if keypool, exists := components["keypool"]; exists && !keypool.OK {
		return "exhausted"
	}

	// Redis down = state is not durable across restarts
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "operational"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "state-not-durable",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.RedisClient.Ping(ctx).Err()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "state-not-durable",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "state-durable",
		Error:  "none",
	}
}
