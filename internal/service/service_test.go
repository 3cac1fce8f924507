package service_test

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dispatch-board/backend/internal/domain"
	"github.com/dispatch-board/backend/internal/repo"
)

// memStore is a stateful in-memory double for the whole repo layer. The
// services under test run multi-step read-modify-write sequences, so a
// scenario store beats per-method function mocks here: tests seed state,
// run an operation, and assert on the final partition.
//
// failErr, when set, makes every repo call fail — the degraded-read and
// atomicity tests use it to simulate storage outages.
// memberWrites records the owner ids whose member list was written, so
// tests can assert that unchanged owners are never written.
type memStore struct {
	stops     map[string]domain.Stop
	drivers   map[string]domain.Owner
	routes    map[string]domain.Owner
	snapshots []domain.RouteRunSnapshot

	memberWrites []string
	failErr      error
}

func newMemStore() *memStore {
	return &memStore{
		stops:   map[string]domain.Stop{},
		drivers: map[string]domain.Owner{},
		routes:  map[string]domain.Owner{},
	}
}

func (m *memStore) addStop(id string, day domain.Day) {
	m.stops[id] = domain.Stop{ID: id, Day: day, ExternalKey: "ext-" + id}
}

func (m *memStore) addDriver(id string, day domain.Day, members ...string) {
	m.drivers[id] = domain.Owner{
		ID: id, Day: day, DisplayName: "Driver " + id, ColorTag: "#3366ff",
		MemberStopIDs: append([]string{}, members...), Source: domain.SourceDrivers,
	}
}

func (m *memStore) addRoute(id string, members ...string) {
	m.routes[id] = domain.Owner{
		ID: id, Day: domain.DayAll, DisplayName: "Route " + id, ColorTag: "#cc2200",
		MemberStopIDs: append([]string{}, members...), Source: domain.SourceRoutes,
	}
}

// owner returns the live record for id from whichever collection holds it.
func (m *memStore) owner(id string) (domain.Owner, bool) {
	if o, ok := m.drivers[id]; ok {
		return o, true
	}
	o, ok := m.routes[id]
	return o, ok
}

func (m *memStore) repos() repo.Repos {
	return repo.Repos{
		Stops:     &memStopRepo{m},
		Owners:    &memOwnerRepo{m},
		Snapshots: &memSnapshotRepo{m},
	}
}

// memTxRunner satisfies repo.TxRunner by running fn directly against the
// store. Unit tests exercise operation logic, not transaction isolation —
// that is the repo integration tests' job.
type memTxRunner struct {
	store *memStore
}

func (t *memTxRunner) InTx(_ context.Context, fn func(r repo.Repos) error) error {
	return fn(t.store.repos())
}

var _ repo.TxRunner = (*memTxRunner)(nil)

// ---- StopRepo --------------------------------------------------------------

type memStopRepo struct{ s *memStore }

var _ repo.StopRepo = (*memStopRepo)(nil)

func (r *memStopRepo) GetByID(_ context.Context, id string) (domain.Stop, error) {
	if r.s.failErr != nil {
		return domain.Stop{}, r.s.failErr
	}
	stop, ok := r.s.stops[id]
	if !ok {
		return domain.Stop{}, domain.ErrStopNotFound
	}
	return stop, nil
}

func (r *memStopRepo) FindByKey(_ context.Context, key string, day domain.Day) (domain.Stop, error) {
	if r.s.failErr != nil {
		return domain.Stop{}, r.s.failErr
	}
	for _, stop := range r.s.stops {
		if (stop.ID == key || stop.ExternalKey == key) && stop.Day.InScope(day) {
			return stop, nil
		}
	}
	return domain.Stop{}, domain.ErrStopNotFound
}

func (r *memStopRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Stop, error) {
	if r.s.failErr != nil {
		return nil, r.s.failErr
	}
	out := []domain.Stop{}
	seen := map[string]bool{}
	for _, id := range ids {
		if stop, ok := r.s.stops[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, stop)
		}
	}
	return out, nil
}

func (r *memStopRepo) SetOwner(_ context.Context, stopID string, ownerID *string) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	stop, ok := r.s.stops[stopID]
	if !ok {
		return domain.ErrStopNotFound
	}
	stop.CurrentOwnerID = ownerID
	r.s.stops[stopID] = stop
	return nil
}

func (r *memStopRepo) SetOwnerBulk(_ context.Context, stopIDs []string, ownerID string) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	for _, id := range stopIDs {
		if stop, ok := r.s.stops[id]; ok {
			owner := ownerID
			stop.CurrentOwnerID = &owner
			r.s.stops[id] = stop
		}
	}
	return nil
}

func (r *memStopRepo) ClearOwnerRefs(_ context.Context, ownerIDs, keepStopIDs []string) (int64, error) {
	if r.s.failErr != nil {
		return 0, r.s.failErr
	}
	var cleared int64
	for id, stop := range r.s.stops {
		if stop.CurrentOwnerID == nil || !slices.Contains(ownerIDs, *stop.CurrentOwnerID) {
			continue
		}
		if slices.Contains(keepStopIDs, id) {
			continue
		}
		stop.CurrentOwnerID = nil
		r.s.stops[id] = stop
		cleared++
	}
	return cleared, nil
}

func (r *memStopRepo) SetCompleted(_ context.Context, stopID string, completed bool) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	stop, ok := r.s.stops[stopID]
	if !ok {
		return domain.ErrStopNotFound
	}
	stop.Completed = completed
	r.s.stops[stopID] = stop
	return nil
}

// ---- OwnerRepo -------------------------------------------------------------

type memOwnerRepo struct{ s *memStore }

var _ repo.OwnerRepo = (*memOwnerRepo)(nil)

func (r *memOwnerRepo) Lookup(_ context.Context, id string) (domain.Owner, error) {
	if r.s.failErr != nil {
		return domain.Owner{}, r.s.failErr
	}
	owner, ok := r.s.owner(id)
	if !ok {
		return domain.Owner{}, domain.ErrOwnerNotFound
	}
	return owner, nil
}

func (r *memOwnerRepo) ListForDay(_ context.Context, day domain.Day) ([]domain.Owner, error) {
	if r.s.failErr != nil {
		return nil, r.s.failErr
	}
	owners := []domain.Owner{}
	for _, o := range r.s.drivers {
		if o.Day.InScope(day) {
			owners = append(owners, o)
		}
	}
	for _, o := range r.s.routes {
		owners = append(owners, o)
	}
	slices.SortFunc(owners, func(a, b domain.Owner) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return owners, nil
}

func (r *memOwnerRepo) UpdateMembers(_ context.Context, owner domain.Owner) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	coll := r.s.drivers
	if owner.Source == domain.SourceRoutes {
		coll = r.s.routes
	}
	live, ok := coll[owner.ID]
	if !ok {
		return domain.ErrOwnerNotFound
	}
	live.MemberStopIDs = append([]string{}, owner.MemberStopIDs...)
	coll[owner.ID] = live
	r.s.memberWrites = append(r.s.memberWrites, owner.ID)
	return nil
}

func (r *memOwnerRepo) RestoreMembers(_ context.Context, owner domain.Owner) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	coll := r.s.drivers
	if owner.Source == domain.SourceRoutes {
		coll = r.s.routes
	}
	live, ok := coll[owner.ID]
	if !ok {
		return domain.ErrOwnerNotFound
	}
	live.MemberStopIDs = append([]string{}, owner.MemberStopIDs...)
	if live.DisplayName == "" {
		live.DisplayName = owner.DisplayName
	}
	if live.ColorTag == "" {
		live.ColorTag = owner.ColorTag
	}
	coll[owner.ID] = live
	r.s.memberWrites = append(r.s.memberWrites, owner.ID)
	return nil
}

func (r *memOwnerRepo) CreateDriver(_ context.Context, owner domain.Owner) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	owner.Source = domain.SourceDrivers
	owner.MemberStopIDs = append([]string{}, owner.MemberStopIDs...)
	r.s.drivers[owner.ID] = owner
	r.s.memberWrites = append(r.s.memberWrites, owner.ID)
	return nil
}

// ---- SnapshotRepo ----------------------------------------------------------

type memSnapshotRepo struct{ s *memStore }

var _ repo.SnapshotRepo = (*memSnapshotRepo)(nil)

func (r *memSnapshotRepo) Insert(_ context.Context, day domain.Day, members []domain.SnapshotMember) (domain.RouteRunSnapshot, error) {
	if r.s.failErr != nil {
		return domain.RouteRunSnapshot{}, r.s.failErr
	}
	snap := domain.RouteRunSnapshot{
		ID:         uuid.New(),
		Day:        day,
		CapturedAt: time.Now().UTC(),
		Members:    cloneMembers(members),
	}
	r.s.snapshots = append(r.s.snapshots, snap)
	return snap, nil
}

func (r *memSnapshotRepo) GetByID(_ context.Context, id uuid.UUID) (domain.RouteRunSnapshot, error) {
	if r.s.failErr != nil {
		return domain.RouteRunSnapshot{}, r.s.failErr
	}
	for _, snap := range r.s.snapshots {
		if snap.ID == id {
			return snap, nil
		}
	}
	return domain.RouteRunSnapshot{}, domain.ErrSnapshotNotFound
}

func (r *memSnapshotRepo) LatestForDay(_ context.Context, day domain.Day) (domain.RouteRunSnapshot, error) {
	if r.s.failErr != nil {
		return domain.RouteRunSnapshot{}, r.s.failErr
	}
	// snapshots is append-ordered; the last match is the most recent.
	for i := len(r.s.snapshots) - 1; i >= 0; i-- {
		if r.s.snapshots[i].Day == day {
			return r.s.snapshots[i], nil
		}
	}
	return domain.RouteRunSnapshot{}, domain.ErrSnapshotNotFound
}

func (r *memSnapshotRepo) UpdateMembers(_ context.Context, id uuid.UUID, members []domain.SnapshotMember) error {
	if r.s.failErr != nil {
		return r.s.failErr
	}
	for i, snap := range r.s.snapshots {
		if snap.ID == id {
			snap.Members = cloneMembers(members)
			snap.CapturedAt = time.Now().UTC()
			r.s.snapshots[i] = snap
			return nil
		}
	}
	return domain.ErrSnapshotNotFound
}

func cloneMembers(members []domain.SnapshotMember) []domain.SnapshotMember {
	out := make([]domain.SnapshotMember, len(members))
	for i, m := range members {
		m.StopIDs = append([]string{}, m.StopIDs...)
		out[i] = m
	}
	return out
}
