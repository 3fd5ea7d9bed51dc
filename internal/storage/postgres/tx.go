package postgres

import (
	"context"
	"database/sql"
	"log/slog"
)

// DBTX is the subset of database/sql used by the store.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx begins a transaction, runs fn with a transactional handle, then
// commits on success or rolls back on error or panic. Panics are rethrown.
// A failed rollback is logged and the original error is returned.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && logger != nil {
			logger.ErrorContext(ctx, "rollback failed", slog.Any("error", rbErr))
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
		if err != nil {
			rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return withTx(ctx, s.db, s.logger, fn)
}
