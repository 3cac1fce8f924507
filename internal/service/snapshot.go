package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/dispatch-board/backend/internal/domain"
	"github.com/dispatch-board/backend/internal/repo"
)

// SnapshotService captures the live owner→stops partition for a day as a
// route-run snapshot and restores a saved snapshot over the live state.
type SnapshotService struct {
	tx  repo.TxRunner
	log *slog.Logger
}

// NewSnapshotService constructs a SnapshotService on the given
// transaction runner.
func NewSnapshotService(tx repo.TxRunner, log *slog.Logger) *SnapshotService {
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotService{tx: tx, log: log}
}

// Capture records the current partition for day. Only owners with a
// non-empty member list are recorded — Restore relies on that, treating
// absence from the snapshot as "this owner should end up empty".
//
// mode selects the storage behavior (see domain.CaptureMode). snapshotID
// is required for CaptureUpdateByID and ignored otherwise; an id that
// does not belong to day fails with domain.ErrSnapshotNotFound.
//
// The returned bool is true when a new snapshot row was created, false
// when an existing one was overwritten.
func (s *SnapshotService) Capture(ctx context.Context, day domain.Day, mode domain.CaptureMode, snapshotID *uuid.UUID) (domain.RouteRunSnapshot, bool, error) {
	var (
		snap    domain.RouteRunSnapshot
		created bool
	)

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		owners, err := r.Owners.ListForDay(ctx, day)
		if err != nil {
			return err
		}

		members := make([]domain.SnapshotMember, 0, len(owners))
		for _, owner := range owners {
			if len(owner.MemberStopIDs) == 0 {
				continue
			}
			members = append(members, domain.SnapshotMember{
				OwnerID:   owner.ID,
				OwnerName: owner.DisplayName,
				Color:     owner.ColorTag,
				StopIDs:   slices.Clone(owner.MemberStopIDs),
			})
		}

		switch mode {
		case domain.CaptureNew:
			snap, err = r.Snapshots.Insert(ctx, day, members)
			created = true
			return err

		case domain.CaptureUpdateLatest:
			latest, err := r.Snapshots.LatestForDay(ctx, day)
			if errors.Is(err, domain.ErrSnapshotNotFound) {
				snap, err = r.Snapshots.Insert(ctx, day, members)
				created = true
				return err
			}
			if err != nil {
				return err
			}
			if err := r.Snapshots.UpdateMembers(ctx, latest.ID, members); err != nil {
				return err
			}
			snap = latest
			snap.Members = members
			return nil

		case domain.CaptureUpdateByID:
			if snapshotID == nil {
				return fmt.Errorf("%w: snapshotId is required for mode %q", domain.ErrValidation, mode)
			}
			existing, err := r.Snapshots.GetByID(ctx, *snapshotID)
			if err != nil {
				return err
			}
			// A mismatched day reads the same as a missing id, so callers
			// cannot probe other days' snapshots.
			if existing.Day != day {
				return domain.ErrSnapshotNotFound
			}
			if err := r.Snapshots.UpdateMembers(ctx, existing.ID, members); err != nil {
				return err
			}
			snap = existing
			snap.Members = members
			return nil

		default:
			return fmt.Errorf("%w: unknown capture mode %q", domain.ErrValidation, mode)
		}
	})
	if err != nil {
		return domain.RouteRunSnapshot{}, false, fmt.Errorf("service.SnapshotService.Capture: %w", err)
	}

	s.log.InfoContext(ctx, "route run captured",
		"day", string(day),
		"snapshot_id", snap.ID.String(),
		"owners", len(snap.Members),
		"created", created,
	)
	return snap, created, nil
}

// Restore rolls the live partition for the snapshot's day back to the
// captured state and returns the number of owner records written.
//
// Each member's owner gets the snapshot's ordered list (recreated in the
// drivers collection if deleted since capture, with display name and
// color backfilled only where the live record lacks them); every stop in
// a restored list gets its back-reference repointed; every in-scope owner
// absent from the snapshot is cleared to empty; and any stop left
// pointing at an in-scope owner without appearing in a restored list has
// its back-reference nulled, so the back-reference invariant holds after
// the operation. Owners outside the snapshot's day scope are untouched.
func (s *SnapshotService) Restore(ctx context.Context, snapshotID uuid.UUID) (int, error) {
	var affected int

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		affected = 0

		snap, err := r.Snapshots.GetByID(ctx, snapshotID)
		if err != nil {
			return err
		}

		live, err := r.Owners.ListForDay(ctx, snap.Day)
		if err != nil {
			return err
		}
		liveByID := make(map[string]domain.Owner, len(live))
		for _, owner := range live {
			liveByID[owner.ID] = owner
		}

		inSnapshot := make(map[string]bool, len(snap.Members))
		keepStopIDs := []string{}

		for _, member := range snap.Members {
			inSnapshot[member.OwnerID] = true
			keepStopIDs = append(keepStopIDs, member.StopIDs...)

			if owner, ok := liveByID[member.OwnerID]; ok {
				owner.MemberStopIDs = slices.Clone(member.StopIDs)
				owner.DisplayName = member.OwnerName
				owner.ColorTag = member.Color
				if err := r.Owners.RestoreMembers(ctx, owner); err != nil {
					return err
				}
			} else {
				recreated := domain.Owner{
					ID:            member.OwnerID,
					Day:           snap.Day,
					DisplayName:   member.OwnerName,
					ColorTag:      member.Color,
					MemberStopIDs: slices.Clone(member.StopIDs),
					Source:        domain.SourceDrivers,
				}
				if err := r.Owners.CreateDriver(ctx, recreated); err != nil {
					return err
				}
				liveByID[member.OwnerID] = recreated
			}
			affected++

			if err := r.Stops.SetOwnerBulk(ctx, member.StopIDs, member.OwnerID); err != nil {
				return err
			}

			s.log.DebugContext(ctx, "restore: owner membership overwritten",
				"owner_id", member.OwnerID,
				"stops", len(member.StopIDs),
			)
		}

		// Owners that gained members after capture lose them again; an
		// owner that is already empty needs no write.
		ownerIDs := make([]string, 0, len(liveByID))
		for _, owner := range live {
			ownerIDs = append(ownerIDs, owner.ID)
			if inSnapshot[owner.ID] || len(owner.MemberStopIDs) == 0 {
				continue
			}
			owner.MemberStopIDs = []string{}
			if err := r.Owners.UpdateMembers(ctx, owner); err != nil {
				return err
			}
			affected++
		}
		for id := range liveByID {
			if !slices.Contains(ownerIDs, id) {
				ownerIDs = append(ownerIDs, id)
			}
		}

		// Stops dropped from every list become unassigned rather than
		// keeping a dangling back-reference at a now-empty owner.
		cleared, err := r.Stops.ClearOwnerRefs(ctx, ownerIDs, keepStopIDs)
		if err != nil {
			return err
		}
		if cleared > 0 {
			s.log.DebugContext(ctx, "restore: orphaned back-references cleared", "stops", cleared)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("service.SnapshotService.Restore: %w", err)
	}

	s.log.InfoContext(ctx, "route run restored",
		"snapshot_id", snapshotID.String(),
		"owners_affected", affected,
	)
	return affected, nil
}
