package handler

import (
	"net/http"
	"strings"

	"github.com/dispatch-board/backend/internal/domain"
)

// reassignRequest is the body of POST /api/reassign.
type reassignRequest struct {
	Day           string `json:"day"`
	StopKey       string `json:"stopKey"`
	TargetOwnerID string `json:"targetOwnerId"`
}

// completeStopRequest is the body of POST /api/stops/complete.
// Completed is a pointer so a missing field is distinguishable from false.
type completeStopRequest struct {
	StopID    string `json:"stopId"`
	Completed *bool  `json:"completed"`
}

// okResponse is the body of successful mutation responses.
type okResponse struct {
	OK bool `json:"ok"`
}

// Reassign handles POST /api/reassign: move one stop to a target owner
// within a day scope.
func (s *Server) Reassign(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.StopKey) == "" || strings.TrimSpace(req.TargetOwnerID) == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	day, err := domain.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.assignments.Reassign(r.Context(), day, req.StopKey, req.TargetOwnerID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// CompleteStop handles POST /api/stops/complete: flip a stop's
// completion flag from the mobile progress view.
func (s *Server) CompleteStop(w http.ResponseWriter, r *http.Request) {
	var req completeStopRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.StopID) == "" || req.Completed == nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.assignments.MarkCompleted(r.Context(), req.StopID, *req.Completed); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
