package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"feed_ranker/internal/domain"
)

// jobLockKey identifies the feed-ranking job in pg advisory lock
// space. Fixed: there is exactly one such job per database.
const jobLockKey = int64(7041168)

// RunLock serializes ranking runs with a session-scoped Postgres
// advisory lock, so an on-demand run cannot overlap the scheduled
// one. The lock lives on a dedicated connection held for the run.
type RunLock struct {
	db *sqlx.DB
}

func NewRunLock(db *sqlx.DB) *RunLock {
	return &RunLock{db: db}
}

func (l *RunLock) Acquire(ctx context.Context) (func(), error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, err
	}

	var acquired bool
	if err := sqlx.GetContext(ctx, conn, &acquired, "SELECT pg_try_advisory_lock($1)", jobLockKey); err != nil {
		conn.Close()
		return nil, err
	}
	if !acquired {
		conn.Close()
		return nil, domain.ErrRunInProgress
	}

	release := func() {
		// Unlock on a fresh context: the run's context may already be
		// done when we get here.
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", jobLockKey)
		conn.Close()
	}
	return release, nil
}
