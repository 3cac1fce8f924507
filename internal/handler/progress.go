package handler

import (
	"net/http"

	"github.com/dispatch-board/backend/internal/domain"
)

// progressRow is one element of the GET /api/progress response array.
type progressRow struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Color          string   `json:"color"`
	StopIDs        []string `json:"stopIds"`
	TotalStops     int      `json:"totalStops"`
	CompletedStops int      `json:"completedStops"`
}

// GetProgress handles GET /api/progress?day=<token>.
//
// The feed is advisory: a malformed day token or any internal failure
// returns 200 with an empty array instead of an error status, so the
// downstream display degrades instead of breaking.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	day, err := domain.ParseDay(r.URL.Query().Get("day"))
	if err != nil {
		writeJSON(w, http.StatusOK, []progressRow{})
		return
	}

	summaries := s.progress.Summarize(r.Context(), day)

	rows := make([]progressRow, 0, len(summaries))
	for _, p := range summaries {
		rows = append(rows, progressRow{
			ID:             p.OwnerID,
			Name:           p.DisplayName,
			Color:          p.ColorTag,
			StopIDs:        p.StopIDs,
			TotalStops:     p.TotalStops,
			CompletedStops: p.CompletedStops,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}
