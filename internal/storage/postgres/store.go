package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hongminglow/coursenese-be/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.UserStore      = (*Store)(nil)
	_ storage.ProfileStore   = (*Store)(nil)
	_ storage.CourseStore    = (*Store)(nil)
	_ storage.CartStore      = (*Store)(nil)
	_ storage.RatingStore    = (*Store)(nil)
	_ storage.PortfolioStore = (*Store)(nil)
	_ storage.Pinger         = (*Store)(nil)
)

// Store provides Postgres-backed persistence for the marketplace.
type Store struct {
	db     *sql.DB
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore connects to Postgres, applies migrations and returns a ready Store.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: stdlib.OpenDBFromPool(pool), pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing *sql.DB. Migrations are not applied.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Postgres error codes the store translates.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapError turns driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		switch pgErr.ConstraintName {
		case "users_email_key":
			return storage.ErrDuplicateEmail
		case "profiles_phone_number_key":
			return storage.ErrDuplicatePhone
		case "courses_slug_key":
			return storage.ErrDuplicateSlug
		}
		return storage.ErrAlreadyExists
	case foreignKeyViolation:
		return storage.ErrNotFound
	}
	return err
}

// execAffected runs a write and returns ErrNotFound when no row was touched.
func execAffected(ctx context.Context, q DBTX, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
