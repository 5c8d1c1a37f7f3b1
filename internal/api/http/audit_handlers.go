package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/darasahub/darasa/internal/audit"
)

// GET /audit/events?type=&limit=
func ListAuditEventsHandler(rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := rec.Recent(r.Context(), r.URL.Query().Get("type"), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out := make([]map[string]any, 0, len(events))
		for _, e := range events {
			out = append(out, map[string]any{
				"offset":     e.Offset,
				"type":       e.Type,
				"key":        e.Key,
				"data":       json.RawMessage(e.DataJSON),
				"created_at": e.CreatedAt,
			})
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
