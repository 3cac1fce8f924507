package service

import (
	"context"
	"log/slog"

	"github.com/dispatch-board/backend/internal/domain"
	"github.com/dispatch-board/backend/internal/repo"
)

// ProgressService produces the read-only per-owner progress rollup for
// the map and mobile views. It reads pool-side without any transaction —
// the feed is advisory and tolerates a stale view of ownership — and it
// never returns an error: any storage failure degrades to an empty
// result so downstream displays keep rendering.
type ProgressService struct {
	owners repo.OwnerRepo
	stops  repo.StopRepo
	log    *slog.Logger
}

// NewProgressService constructs a ProgressService on the given repos.
func NewProgressService(owners repo.OwnerRepo, stops repo.StopRepo, log *slog.Logger) *ProgressService {
	if log == nil {
		log = slog.Default()
	}
	return &ProgressService{owners: owners, stops: stops, log: log}
}

// Summarize returns one row per in-scope owner with at least one live
// member stop, ordered by owner id. Member ids that no longer resolve to
// a stop are filtered silently, so the counts only reflect stops that
// still exist.
func (s *ProgressService) Summarize(ctx context.Context, day domain.Day) []domain.RouteProgress {
	owners, err := s.owners.ListForDay(ctx, day)
	if err != nil {
		s.log.WarnContext(ctx, "progress feed degraded", "day", string(day), "error", err)
		return []domain.RouteProgress{}
	}

	memberIDs := []string{}
	for _, owner := range owners {
		memberIDs = append(memberIDs, owner.MemberStopIDs...)
	}

	stops, err := s.stops.ListByIDs(ctx, memberIDs)
	if err != nil {
		s.log.WarnContext(ctx, "progress feed degraded", "day", string(day), "error", err)
		return []domain.RouteProgress{}
	}
	byID := make(map[string]domain.Stop, len(stops))
	for _, stop := range stops {
		byID[stop.ID] = stop
	}

	rows := []domain.RouteProgress{}
	seen := make(map[string]bool, len(owners))
	for _, owner := range owners {
		// The union query already dedupes by construction, but an id
		// present in both collections must not produce two rows.
		if seen[owner.ID] {
			continue
		}
		seen[owner.ID] = true

		row := domain.RouteProgress{
			OwnerID:     owner.ID,
			DisplayName: owner.DisplayName,
			ColorTag:    owner.ColorTag,
			StopIDs:     []string{},
		}
		for _, id := range owner.MemberStopIDs {
			stop, ok := byID[id]
			if !ok {
				continue // stale reference, skip without error
			}
			row.StopIDs = append(row.StopIDs, id)
			row.TotalStops++
			if stop.Completed {
				row.CompletedStops++
			}
		}
		if row.TotalStops == 0 {
			continue // callers only want live routes
		}
		rows = append(rows, row)
	}
	return rows
}
