// Package service contains the business logic for the dispatch board.
// Services validate inputs, enforce the ownership invariants, and
// orchestrate repo calls. No SQL lives here — services depend on repo
// interfaces, not implementations, and mutating operations run inside
// the repo.TxRunner so multi-record sequences commit atomically.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dispatch-board/backend/internal/domain"
	"github.com/dispatch-board/backend/internal/repo"
)

// AssignmentService moves stops between owners. It is the only component
// allowed to mutate ownership, and it maintains two invariants as
// post-conditions of every call: a stop id appears in at most one
// in-scope owner's member list, and the stop's back-reference names
// exactly that owner.
type AssignmentService struct {
	tx  repo.TxRunner
	log *slog.Logger
}

// NewAssignmentService constructs an AssignmentService on the given
// transaction runner.
func NewAssignmentService(tx repo.TxRunner, log *slog.Logger) *AssignmentService {
	if log == nil {
		log = slog.Default()
	}
	return &AssignmentService{tx: tx, log: log}
}

// Reassign moves one stop to targetOwnerID within the given day scope.
//
// stopKey resolves by stop id or by external key, scoped to day when the
// day is specific. The target owner resolves across both physical
// collections. Every other in-scope owner holding the stop loses it;
// owners needing no change are not written. The stop is appended at the
// back of the target's list — new stops go to the end of the route —
// unless it is already a member, in which case its position is kept.
//
// Calling Reassign twice with the same arguments leaves identical state:
// the second call issues no owner-list writes at all.
//
// Returns domain.ErrStopNotFound, domain.ErrOwnerNotFound, or
// domain.ErrValidation; any storage failure aborts the whole operation
// with no partial writes.
func (s *AssignmentService) Reassign(ctx context.Context, day domain.Day, stopKey, targetOwnerID string) error {
	if strings.TrimSpace(stopKey) == "" {
		return fmt.Errorf("service.AssignmentService.Reassign: %w: stopKey is required", domain.ErrValidation)
	}
	if strings.TrimSpace(targetOwnerID) == "" {
		return fmt.Errorf("service.AssignmentService.Reassign: %w: targetOwnerId is required", domain.ErrValidation)
	}

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		stop, err := r.Stops.FindByKey(ctx, stopKey, day)
		if err != nil {
			return err
		}

		target, err := r.Owners.Lookup(ctx, targetOwnerID)
		if err != nil {
			return err
		}

		// Scope scanning to the stop's own day: a wildcard stop touches
		// every owner, a Monday stop touches Monday plus wildcard owners.
		owners, err := r.Owners.ListForDay(ctx, stop.Day)
		if err != nil {
			return err
		}

		for _, owner := range owners {
			if owner.ID == target.ID || !owner.Contains(stop.ID) {
				continue
			}
			owner.MemberStopIDs = owner.WithoutMember(stop.ID)
			if err := r.Owners.UpdateMembers(ctx, owner); err != nil {
				return err
			}
			s.log.DebugContext(ctx, "reassign: removed stop from previous owner",
				"stop_id", stop.ID,
				"owner_id", owner.ID,
				"remaining", len(owner.MemberStopIDs),
			)
		}

		if !target.Contains(stop.ID) {
			target.MemberStopIDs = append(target.MemberStopIDs, stop.ID)
			if err := r.Owners.UpdateMembers(ctx, target); err != nil {
				return err
			}
		}

		return r.Stops.SetOwner(ctx, stop.ID, &target.ID)
	})
	if err != nil {
		return fmt.Errorf("service.AssignmentService.Reassign: %w", err)
	}

	s.log.InfoContext(ctx, "stop reassigned",
		"day", string(day),
		"stop_key", stopKey,
		"target_owner_id", targetOwnerID,
	)
	return nil
}

// MarkCompleted flips a stop's completion flag. The mobile progress view
// calls this as drivers finish their stops.
// Returns domain.ErrStopNotFound if the stop does not exist.
func (s *AssignmentService) MarkCompleted(ctx context.Context, stopID string, completed bool) error {
	if strings.TrimSpace(stopID) == "" {
		return fmt.Errorf("service.AssignmentService.MarkCompleted: %w: stopId is required", domain.ErrValidation)
	}

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		return r.Stops.SetCompleted(ctx, stopID, completed)
	})
	if err != nil {
		return fmt.Errorf("service.AssignmentService.MarkCompleted: %w", err)
	}
	return nil
}
