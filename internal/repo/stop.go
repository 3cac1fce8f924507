package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dispatch-board/backend/internal/domain"
)

// StopRepo defines the persistence operations for Stops. Stops are
// created and deleted by the external order-management process, so there
// is no Create/Delete here — only lookups and the two fields this service
// owns: current_owner_id and completed.
type StopRepo interface {
	// GetByID retrieves a single stop by its id.
	// Returns domain.ErrStopNotFound if no such stop exists.
	GetByID(ctx context.Context, id string) (domain.Stop, error)

	// FindByKey resolves a stop by its own id or by its external key.
	// When day is a specific weekday, resolution is limited to stops
	// scoped to that day or to the wildcard. Returns
	// domain.ErrStopNotFound if nothing matches.
	FindByKey(ctx context.Context, key string, day domain.Day) (domain.Stop, error)

	// ListByIDs returns the stops whose ids appear in ids. Ids that no
	// longer resolve are simply absent from the result — stale member
	// references are the caller's concern.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Stop, error)

	// SetOwner rewrites a stop's back-reference. Pass nil to clear it.
	// Returns domain.ErrStopNotFound if the stop does not exist.
	SetOwner(ctx context.Context, stopID string, ownerID *string) error

	// SetOwnerBulk points every stop in stopIDs at ownerID in one
	// statement. Missing ids are ignored.
	SetOwnerBulk(ctx context.Context, stopIDs []string, ownerID string) error

	// ClearOwnerRefs nulls the back-reference of every stop currently
	// pointing at one of ownerIDs, except stops listed in keepStopIDs.
	// Returns the number of stops cleared.
	ClearOwnerRefs(ctx context.Context, ownerIDs, keepStopIDs []string) (int64, error)

	// SetCompleted flips a stop's completion flag.
	// Returns domain.ErrStopNotFound if the stop does not exist.
	SetCompleted(ctx context.Context, stopID string, completed bool) error
}

// pgStopRepo is the Postgres implementation of StopRepo.
type pgStopRepo struct {
	db db
}

// NewStopRepo constructs a StopRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation.
func NewStopRepo(db db) StopRepo {
	return &pgStopRepo{db: db}
}

const stopColumns = `id, day, external_key, current_owner_id, completed, created_at, updated_at`

func (r *pgStopRepo) GetByID(ctx context.Context, id string) (domain.Stop, error) {
	q := `SELECT ` + stopColumns + ` FROM stops WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgStopRepo) FindByKey(ctx context.Context, key string, day domain.Day) (domain.Stop, error) {
	// A wildcard query day matches every stop; a specific day also
	// matches wildcard-scoped stops.
	q := `
		SELECT ` + stopColumns + `
		FROM stops
		WHERE (id = @key OR external_key = @key)
		  AND (@day = 'all' OR day = @day OR day = 'all')
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key, "day": string(day)})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.FindByKey: %w", err)
	}
	return result, nil
}

func (r *pgStopRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Stop, error) {
	if len(ids) == 0 {
		return []domain.Stop{}, nil
	}

	q := `SELECT ` + stopColumns + ` FROM stops WHERE id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByIDs: %w", err)
	}
	defer rows.Close()

	stops := []domain.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StopRepo.ListByIDs: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByIDs: rows: %w", err)
	}
	return stops, nil
}

func (r *pgStopRepo) SetOwner(ctx context.Context, stopID string, ownerID *string) error {
	const q = `
		UPDATE stops
		SET current_owner_id = @owner_id,
		    updated_at       = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": stopID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.StopRepo.SetOwner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StopRepo.SetOwner: %w", domain.ErrStopNotFound)
	}
	return nil
}

func (r *pgStopRepo) SetOwnerBulk(ctx context.Context, stopIDs []string, ownerID string) error {
	if len(stopIDs) == 0 {
		return nil
	}

	const q = `
		UPDATE stops
		SET current_owner_id = @owner_id,
		    updated_at       = now()
		WHERE id = ANY(@ids)`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"ids": stopIDs, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.StopRepo.SetOwnerBulk: %w", err)
	}
	return nil
}

func (r *pgStopRepo) ClearOwnerRefs(ctx context.Context, ownerIDs, keepStopIDs []string) (int64, error) {
	if len(ownerIDs) == 0 {
		return 0, nil
	}
	if keepStopIDs == nil {
		keepStopIDs = []string{}
	}

	const q = `
		UPDATE stops
		SET current_owner_id = NULL,
		    updated_at       = now()
		WHERE current_owner_id = ANY(@owner_ids)
		  AND NOT (id = ANY(@keep_ids))`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"owner_ids": ownerIDs, "keep_ids": keepStopIDs})
	if err != nil {
		return 0, fmt.Errorf("repo.StopRepo.ClearOwnerRefs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgStopRepo) SetCompleted(ctx context.Context, stopID string, completed bool) error {
	const q = `
		UPDATE stops
		SET completed  = @completed,
		    updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": stopID, "completed": completed})
	if err != nil {
		return fmt.Errorf("repo.StopRepo.SetCompleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StopRepo.SetCompleted: %w", domain.ErrStopNotFound)
	}
	return nil
}

// scanStop maps a single database row into a domain.Stop.
// current_owner_id scans through a *string so NULL becomes nil.
func scanStop(s scanner) (domain.Stop, error) {
	var (
		st  domain.Stop
		day string
	)

	err := s.Scan(&st.ID, &day, &st.ExternalKey, &st.CurrentOwnerID, &st.Completed, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stop{}, domain.ErrStopNotFound
		}
		return domain.Stop{}, err
	}

	st.Day = domain.Day(day)
	return st, nil
}
