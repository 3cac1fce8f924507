package repo

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/dispatch-board/backend/internal/domain"
)

// OwnerRepo unifies the two physical owner collections — the day-scoped
// drivers table and the legacy day-agnostic routes table — behind one
// logical id space. Lookups report which table a record came from via
// Owner.Source, and every write targets that same table, so callers never
// special-case the legacy collection.
type OwnerRepo interface {
	// Lookup resolves an owner id across both collections.
	// Returns domain.ErrOwnerNotFound if neither table holds the id.
	Lookup(ctx context.Context, id string) (domain.Owner, error)

	// ListForDay returns every owner in scope for day: drivers scoped to
	// that day or to the wildcard, plus all legacy routes (which are
	// always wildcard-scoped). Ordered by owner id.
	ListForDay(ctx context.Context, day domain.Day) ([]domain.Owner, error)

	// UpdateMembers rewrites an owner's member list in the table named by
	// owner.Source. Returns domain.ErrOwnerNotFound if the row is gone.
	UpdateMembers(ctx context.Context, owner domain.Owner) error

	// RestoreMembers rewrites the member list like UpdateMembers and
	// additionally backfills display_name and color_tag, but only where
	// the live record holds an empty value. Used by snapshot restore.
	RestoreMembers(ctx context.Context, owner domain.Owner) error

	// CreateDriver inserts an owner into the modern drivers collection.
	// Restore uses this to recreate owners deleted since capture; if the
	// id meanwhile reappeared, the row is re-scoped to owner.Day instead
	// of failing on the primary key.
	CreateDriver(ctx context.Context, owner domain.Owner) error
}

// pgOwnerRepo is the Postgres implementation of OwnerRepo.
type pgOwnerRepo struct {
	db db
}

// NewOwnerRepo constructs an OwnerRepo backed by the provided db connection.
func NewOwnerRepo(db db) OwnerRepo {
	return &pgOwnerRepo{db: db}
}

func (r *pgOwnerRepo) Lookup(ctx context.Context, id string) (domain.Owner, error) {
	const q = `
		SELECT id, day, display_name, color_tag, member_stop_ids, created_at, updated_at, 'drivers'
		FROM drivers
		WHERE id = @id
		UNION ALL
		SELECT id, 'all', display_name, color_tag, member_stop_ids, created_at, updated_at, 'routes'
		FROM routes
		WHERE id = @id
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	owner, err := scanOwner(row)
	if err != nil {
		return domain.Owner{}, fmt.Errorf("repo.OwnerRepo.Lookup: %w", err)
	}
	return owner, nil
}

func (r *pgOwnerRepo) ListForDay(ctx context.Context, day domain.Day) ([]domain.Owner, error) {
	// Legacy routes carry no day column; every route row is in scope for
	// every day and surfaces as wildcard-scoped.
	const q = `
		SELECT id, day, display_name, color_tag, member_stop_ids, created_at, updated_at, 'drivers'
		FROM drivers
		WHERE (@day = 'all' OR day = @day OR day = 'all')
		UNION ALL
		SELECT id, 'all', display_name, color_tag, member_stop_ids, created_at, updated_at, 'routes'
		FROM routes
		ORDER BY 1`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"day": string(day)})
	if err != nil {
		return nil, fmt.Errorf("repo.OwnerRepo.ListForDay: %w", err)
	}
	defer rows.Close()

	owners := []domain.Owner{}
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.OwnerRepo.ListForDay: scan: %w", err)
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.OwnerRepo.ListForDay: rows: %w", err)
	}
	return owners, nil
}

func (r *pgOwnerRepo) UpdateMembers(ctx context.Context, owner domain.Owner) error {
	members, err := marshalMembers(owner.MemberStopIDs)
	if err != nil {
		return fmt.Errorf("repo.OwnerRepo.UpdateMembers: %w", err)
	}

	q := `
		UPDATE ` + tableFor(owner.Source) + `
		SET member_stop_ids = @members,
		    updated_at      = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": owner.ID, "members": members})
	if err != nil {
		return fmt.Errorf("repo.OwnerRepo.UpdateMembers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.OwnerRepo.UpdateMembers: %w", domain.ErrOwnerNotFound)
	}
	return nil
}

func (r *pgOwnerRepo) RestoreMembers(ctx context.Context, owner domain.Owner) error {
	members, err := marshalMembers(owner.MemberStopIDs)
	if err != nil {
		return fmt.Errorf("repo.OwnerRepo.RestoreMembers: %w", err)
	}

	// NULLIF turns an empty live value into NULL so COALESCE backfills it
	// from the snapshot; populated live values win.
	q := `
		UPDATE ` + tableFor(owner.Source) + `
		SET member_stop_ids = @members,
		    display_name    = COALESCE(NULLIF(display_name, ''), @display_name),
		    color_tag       = COALESCE(NULLIF(color_tag, ''), @color_tag),
		    updated_at      = now()
		WHERE id = @id`

	args := pgx.NamedArgs{
		"id":           owner.ID,
		"members":      members,
		"display_name": owner.DisplayName,
		"color_tag":    owner.ColorTag,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.OwnerRepo.RestoreMembers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.OwnerRepo.RestoreMembers: %w", domain.ErrOwnerNotFound)
	}
	return nil
}

func (r *pgOwnerRepo) CreateDriver(ctx context.Context, owner domain.Owner) error {
	members, err := marshalMembers(owner.MemberStopIDs)
	if err != nil {
		return fmt.Errorf("repo.OwnerRepo.CreateDriver: %w", err)
	}

	const q = `
		INSERT INTO drivers (id, day, display_name, color_tag, member_stop_ids)
		VALUES (@id, @day, @display_name, @color_tag, @members)
		ON CONFLICT (id) DO UPDATE SET
			day             = EXCLUDED.day,
			member_stop_ids = EXCLUDED.member_stop_ids,
			updated_at      = now()`

	args := pgx.NamedArgs{
		"id":           owner.ID,
		"day":          string(owner.Day),
		"display_name": owner.DisplayName,
		"color_tag":    owner.ColorTag,
		"members":      members,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.OwnerRepo.CreateDriver: %w", err)
	}
	return nil
}

// tableFor maps an owner source to its physical table name. Both values
// are compile-time constants, never caller input.
func tableFor(source domain.OwnerSource) string {
	if source == domain.SourceRoutes {
		return "routes"
	}
	return "drivers"
}

// marshalMembers encodes an ordered member list for the jsonb column.
// A nil list persists as an empty array, never as SQL NULL.
func marshalMembers(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// scanOwner maps a single row from either owner table into a domain.Owner.
// The trailing source column tells the write paths which table to target.
func scanOwner(s scanner) (domain.Owner, error) {
	var (
		o       domain.Owner
		day     string
		members []byte
		source  string
	)

	err := s.Scan(&o.ID, &day, &o.DisplayName, &o.ColorTag, &members, &o.CreatedAt, &o.UpdatedAt, &source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Owner{}, domain.ErrOwnerNotFound
		}
		return domain.Owner{}, err
	}

	o.Day = domain.Day(day)
	o.Source = domain.OwnerSource(source)
	o.MemberStopIDs = []string{}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &o.MemberStopIDs); err != nil {
			return domain.Owner{}, fmt.Errorf("decode member_stop_ids: %w", err)
		}
	}
	return o, nil
}
