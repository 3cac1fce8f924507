package repo

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dispatch-board/backend/internal/domain"
)

// SnapshotRepo defines the persistence operations for route-run
// snapshots. Members persist as one ordered jsonb array so the capture
// order of owners and of the stops inside each owner round-trips exactly.
type SnapshotRepo interface {
	// Insert stores a fresh snapshot and returns it with the
	// DB-generated id and captured_at populated.
	Insert(ctx context.Context, day domain.Day, members []domain.SnapshotMember) (domain.RouteRunSnapshot, error)

	// GetByID retrieves a snapshot by id.
	// Returns domain.ErrSnapshotNotFound if no such snapshot exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.RouteRunSnapshot, error)

	// LatestForDay returns the most recently captured snapshot for day.
	// Returns domain.ErrSnapshotNotFound if the day has none yet.
	LatestForDay(ctx context.Context, day domain.Day) (domain.RouteRunSnapshot, error)

	// UpdateMembers overwrites a snapshot's member list and refreshes its
	// captured_at. Returns domain.ErrSnapshotNotFound if the id is gone.
	UpdateMembers(ctx context.Context, id uuid.UUID, members []domain.SnapshotMember) error
}

// pgSnapshotRepo is the Postgres implementation of SnapshotRepo.
type pgSnapshotRepo struct {
	db db
}

// NewSnapshotRepo constructs a SnapshotRepo backed by the provided db connection.
func NewSnapshotRepo(db db) SnapshotRepo {
	return &pgSnapshotRepo{db: db}
}

const snapshotColumns = `id, day, captured_at, members`

func (r *pgSnapshotRepo) Insert(ctx context.Context, day domain.Day, members []domain.SnapshotMember) (domain.RouteRunSnapshot, error) {
	payload, err := marshalSnapshotMembers(members)
	if err != nil {
		return domain.RouteRunSnapshot{}, fmt.Errorf("repo.SnapshotRepo.Insert: %w", err)
	}

	const q = `
		INSERT INTO route_run_snapshots (day, members)
		VALUES (@day, @members)
		RETURNING ` + snapshotColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"day": string(day), "members": payload})
	result, err := scanSnapshot(row)
	if err != nil {
		return domain.RouteRunSnapshot{}, fmt.Errorf("repo.SnapshotRepo.Insert: %w", err)
	}
	return result, nil
}

func (r *pgSnapshotRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.RouteRunSnapshot, error) {
	const q = `SELECT ` + snapshotColumns + ` FROM route_run_snapshots WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanSnapshot(row)
	if err != nil {
		return domain.RouteRunSnapshot{}, fmt.Errorf("repo.SnapshotRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgSnapshotRepo) LatestForDay(ctx context.Context, day domain.Day) (domain.RouteRunSnapshot, error) {
	const q = `
		SELECT ` + snapshotColumns + `
		FROM route_run_snapshots
		WHERE day = @day
		ORDER BY captured_at DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"day": string(day)})
	result, err := scanSnapshot(row)
	if err != nil {
		return domain.RouteRunSnapshot{}, fmt.Errorf("repo.SnapshotRepo.LatestForDay: %w", err)
	}
	return result, nil
}

func (r *pgSnapshotRepo) UpdateMembers(ctx context.Context, id uuid.UUID, members []domain.SnapshotMember) error {
	payload, err := marshalSnapshotMembers(members)
	if err != nil {
		return fmt.Errorf("repo.SnapshotRepo.UpdateMembers: %w", err)
	}

	const q = `
		UPDATE route_run_snapshots
		SET members     = @members,
		    captured_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "members": payload})
	if err != nil {
		return fmt.Errorf("repo.SnapshotRepo.UpdateMembers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SnapshotRepo.UpdateMembers: %w", domain.ErrSnapshotNotFound)
	}
	return nil
}

// marshalSnapshotMembers encodes the member tuples for the jsonb column.
// A nil list persists as an empty array.
func marshalSnapshotMembers(members []domain.SnapshotMember) ([]byte, error) {
	if members == nil {
		members = []domain.SnapshotMember{}
	}
	return json.Marshal(members)
}

// scanSnapshot maps a single database row into a domain.RouteRunSnapshot.
// An undecodable members payload surfaces as domain.ErrSnapshotFormat so
// handlers can report a malformed snapshot rather than a server error.
func scanSnapshot(s scanner) (domain.RouteRunSnapshot, error) {
	var (
		snap    domain.RouteRunSnapshot
		id      pgtype.UUID
		day     string
		members []byte
	)

	err := s.Scan(&id, &day, &snap.CapturedAt, &members)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RouteRunSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.RouteRunSnapshot{}, err
	}

	snap.ID = uuid.UUID(id.Bytes)
	snap.Day = domain.Day(day)
	snap.Members = []domain.SnapshotMember{}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &snap.Members); err != nil {
			return domain.RouteRunSnapshot{}, fmt.Errorf("%w: %v", domain.ErrSnapshotFormat, err)
		}
	}
	return snap, nil
}
