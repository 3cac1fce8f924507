// Package handler implements the HTTP handlers for the dispatch board
// API. All handlers are methods on Server; they are split into
// domain-specific files (assignment.go, snapshot.go, progress.go) but
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dispatch-board/backend/internal/domain"
)

// AssignmentServicer defines the business operations the assignment
// handlers depend on. Defining the interface here (in the consumer
// package) follows the Go convention: "accept interfaces, return concrete
// types". It lets handler tests inject a mock without touching the
// database or service layer.
type AssignmentServicer interface {
	Reassign(ctx context.Context, day domain.Day, stopKey, targetOwnerID string) error
	MarkCompleted(ctx context.Context, stopID string, completed bool) error
}

// SnapshotServicer defines the business operations the snapshot handlers
// depend on.
type SnapshotServicer interface {
	Capture(ctx context.Context, day domain.Day, mode domain.CaptureMode, snapshotID *uuid.UUID) (domain.RouteRunSnapshot, bool, error)
	Restore(ctx context.Context, snapshotID uuid.UUID) (int, error)
}

// ProgressServicer defines the read-only progress feed the progress
// handler depends on. Note the missing error return: the feed degrades
// to an empty slice instead of failing.
type ProgressServicer interface {
	Summarize(ctx context.Context, day domain.Day) []domain.RouteProgress
}

// Server holds the handlers for all API endpoints.
// Wire it in main.go via Routes().
type Server struct {
	assignments AssignmentServicer
	snapshots   SnapshotServicer
	progress    ProgressServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(assignments AssignmentServicer, snapshots SnapshotServicer, progress ProgressServicer) *Server {
	return &Server{assignments: assignments, snapshots: snapshots, progress: progress}
}

// Routes returns the router for the full API surface. Mount it at the
// server root; middleware is applied by main.go around the whole router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/reassign", s.Reassign)
		r.Post("/stops/complete", s.CompleteStop)
		r.Post("/snapshots", s.CaptureSnapshot)
		r.Post("/snapshots/restore", s.RestoreSnapshot)
		r.Get("/progress", s.GetProgress)
	})

	return r
}
