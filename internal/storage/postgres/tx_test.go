package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS accounts (id INTEGER PRIMARY KEY, email TEXT)`)
	require.NoError(t, err)
	return db
}

func countAccounts(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db := setupSQLite(t)

	err := withTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO accounts(email) VALUES ('ana@x.com')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countAccounts(t, db))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := setupSQLite(t)

	err := withTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO accounts(email) VALUES ('ana@x.com')`)
		require.NoError(t, e)
		return errors.New("profile insert failed")
	})
	require.EqualError(t, err, "profile insert failed")
	require.Equal(t, 0, countAccounts(t, db))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := setupSQLite(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countAccounts(t, db))
	}()

	_ = withTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO accounts(email) VALUES ('ana@x.com')`)
		require.NoError(t, e)
		panic("cart insert exploded")
	})
}

func TestWithTxBeginError(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, db.Close())

	err := withTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err)
}
