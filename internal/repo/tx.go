package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos bundles every store rebuilt on one connection or transaction, so
// a multi-record mutation reads and writes through a single consistent
// view of the database.
type Repos struct {
	Stops     StopRepo
	Owners    OwnerRepo
	Snapshots SnapshotRepo
}

// NewRepos builds the full repo set on the given connection. Pass the
// pool for plain reads or a pgx.Tx for transactional work.
func NewRepos(db db) Repos {
	return Repos{
		Stops:     NewStopRepo(db),
		Owners:    NewOwnerRepo(db),
		Snapshots: NewSnapshotRepo(db),
	}
}

// TxRunner executes a function against a repo set inside one serializable
// transaction. Reassign and Restore are multi-record read-modify-write
// sequences whose intermediate states must never be observed, so every
// mutating service operation runs through here: either every write
// commits or none does.
type TxRunner interface {
	InTx(ctx context.Context, fn func(r Repos) error) error
}

const txMaxAttempts = 5

// pgTxRunner runs functions in serializable pgx transactions, retrying
// serialization failures with exponential backoff.
type pgTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constructs a TxRunner on the given pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgTxRunner{pool: pool}
}

// InTx opens a serializable transaction, runs fn on repos bound to it,
// and commits. Two concurrent serializable transactions over the same
// day's owner rows make Postgres abort one with SQLSTATE 40001; that
// victim is retried with backoff rather than surfaced to the caller.
func (t *pgTxRunner) InTx(ctx context.Context, fn func(r Repos) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = t.attempt(ctx, fn)
		if err == nil || !retryableTxError(err) {
			return err
		}

		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			return fmt.Errorf("repo.TxRunner: %w", ctx.Err())
		}
	}
	return fmt.Errorf("repo.TxRunner: retries exhausted: %w", err)
}

func (t *pgTxRunner) attempt(ctx context.Context, fn func(r Repos) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("repo.TxRunner: begin: %w", err)
	}
	// Rollback after a successful commit is a harmless no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxRunner: commit: %w", err)
	}
	return nil
}

// retryableTxError reports whether err is a transient transaction
// conflict: serialization_failure (40001) or deadlock_detected (40P01).
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
