package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/scout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/scout/internal/logger"
)

// Export runs one aggregation call and streams the result as CSV.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, count, page, err := parseSearchRequest(r, d.DefaultCount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), 0)
			return
		}

		result, err := d.Aggregator.SearchChannels(r.Context(), filters, count, page)
		if err != nil {
			writeSearchError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="channels.csv"`)

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{
			"id", "title", "custom_url", "subscribers", "videos", "views",
			"email", "country", "keywords", "published_at",
		})
		for _, c := range result.Channels {
			_ = cw.Write([]string{
				c.ID,
				c.Title,
				c.CustomURL,
				strconv.FormatInt(c.SubscriberCount, 10),
				strconv.FormatInt(c.VideoCount, 10),
				strconv.FormatInt(c.ViewCount, 10),
				c.Email,
				c.Country,
				strings.Join(c.Keywords, "|"),
				c.PublishedAt.Format("2006-01-02"),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			d.Logger.Warn("csv export write failed",
				logger.Error(err))
		}
	}
}
