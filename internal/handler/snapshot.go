package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dispatch-board/backend/internal/domain"
)

// captureRequest is the body of POST /api/snapshots.
type captureRequest struct {
	Day        string `json:"day"`
	Mode       string `json:"mode"`
	SnapshotID string `json:"snapshotId,omitempty"`
}

// captureResponse is the body of a successful capture.
type captureResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// restoreRequest is the body of POST /api/snapshots/restore.
type restoreRequest struct {
	SnapshotID string `json:"snapshotId"`
}

// restoreResponse is the body of a successful restore.
type restoreResponse struct {
	OK            bool `json:"ok"`
	OwnersUpdated int  `json:"ownersUpdated"`
}

// CaptureSnapshot handles POST /api/snapshots: persist the current
// owner→stops partition for a day as a route-run snapshot.
func (s *Server) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	day, err := domain.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	mode, err := domain.ParseCaptureMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	var snapshotID *uuid.UUID
	if req.SnapshotID != "" {
		id, err := uuid.Parse(req.SnapshotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot format")
			return
		}
		snapshotID = &id
	}

	snap, created, err := s.snapshots.Capture(r.Context(), day, mode, snapshotID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "route run updated"
	if created {
		message = "route run saved"
	}
	writeJSON(w, http.StatusOK, captureResponse{ID: snap.ID.String(), Message: message})
}

// RestoreSnapshot handles POST /api/snapshots/restore: roll the live
// partition back to a saved snapshot.
func (s *Server) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.SnapshotID) == "" {
		writeError(w, http.StatusBadRequest, "snapshotId required")
		return
	}
	id, err := uuid.Parse(req.SnapshotID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot format")
		return
	}

	ownersUpdated, err := s.snapshots.Restore(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, restoreResponse{OK: true, OwnersUpdated: ownersUpdated})
}
