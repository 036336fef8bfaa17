package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/scout/internal/domain"
	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/logger"
	redisstore "github.com/MrSnakeDoc/scout/internal/store/redis"
)

type errorResponse struct {
	Error         string `json:"error"`
	QuotaConsumed int    `json:"quota_consumed,omitempty"`
}

// Search runs one aggregation call and returns the result page as JSON.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filters, count, page, err := parseSearchRequest(r, d.DefaultCount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), 0)
			return
		}

		d.Logger.Info("search request",
			logger.String("query", filters.Query),
			logger.Int("count", count),
			logger.Int("page", page))

		result, err := d.Aggregator.SearchChannels(ctx, filters, count, page)
		if err != nil {
			writeSearchError(w, d, err)
			return
		}

		// Log the search to history, best effort.
		if d.Store != nil {
			if err := d.Store.AppendHistory(ctx, redisstore.HistoryEntry{
				Filters:       filters,
				Page:          page,
				ResultCount:   len(result.Channels),
				QuotaConsumed: result.QuotaConsumed,
				ExecutedAt:    time.Now(),
			}); err != nil {
				d.Logger.Warn("failed to append search history",
					logger.Error(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// History returns recent searches, newest first.
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := d.Store.RecentHistory(r.Context(), n)
		if err != nil {
			d.Logger.Error("failed to read search history",
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read history", 0)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	}
}

// parseSearchRequest maps query parameters onto search filters.
func parseSearchRequest(r *http.Request, defaultCount int) (domain.SearchFilters, int, int, error) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		return domain.SearchFilters{}, 0, 0, errors.New("query parameter q is required")
	}

	filters := domain.SearchFilters{
		Query:    query,
		Country:  strings.TrimSpace(q.Get("country")),
		Language: strings.TrimSpace(q.Get("language")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	if v := q.Get("min_subscribers"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return domain.SearchFilters{}, 0, 0, errors.New("min_subscribers must be a non-negative integer")
		}
		filters.MinSubscribers = n
	}
	if v := q.Get("max_subscribers"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return domain.SearchFilters{}, 0, 0, errors.New("max_subscribers must be a non-negative integer")
		}
		filters.MaxSubscribers = n
	}
	if v := q.Get("has_email"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.SearchFilters{}, 0, 0, errors.New("has_email must be a boolean")
		}
		filters.HasEmail = b
	}

	count := defaultCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return domain.SearchFilters{}, 0, 0, errors.New("count must be between 1 and 500")
		}
		count = n
	}

	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.SearchFilters{}, 0, 0, errors.New("page must be a positive integer")
		}
		page = n
	}

	return filters, count, page, nil
}

// writeSearchError maps the domain error taxonomy onto HTTP statuses.
func writeSearchError(w http.ResponseWriter, d deps.Deps, err error) {
	var se *domain.SearchError
	quota := 0
	if errors.As(err, &se) {
		quota = se.QuotaConsumed
	}

	switch {
	case errors.Is(err, domain.ErrQuotaExhausted):
		writeError(w, http.StatusTooManyRequests, err.Error(), quota)
	case errors.Is(err, domain.ErrInvalidKey):
		writeError(w, http.StatusBadGateway, err.Error(), quota)
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, err.Error(), quota)
	default:
		d.Logger.Error("search failed",
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), quota)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, quota int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, QuotaConsumed: quota})
}
