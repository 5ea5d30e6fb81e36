package repository

import (
	"context"
	"fmt"
)

// TryAdvisoryLock takes a Postgres session advisory lock on key without
// waiting. The lock lives on a dedicated connection which release unlocks and
// returns to the pool. ok is false when another session holds the lock.
func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (release func() error, ok bool, err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("failed to take advisory lock %d: %w", key, err)
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}

	release = func() error {
		defer conn.Close()
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, key); err != nil {
			return fmt.Errorf("failed to release advisory lock %d: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
