package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, nil), mock
}

func strPtr(s string) *string { return &s }

func anaRegistration() models.Registration {
	return models.Registration{
		User:    models.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"},
		Profile: models.Profile{PhoneNumber: strPtr("0812"), City: strPtr("Bandung")},
	}
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "email_verified_at",
	"reset_token", "reset_token_expiry", "created_at", "updated_at"}

func TestCreateRegistrationCommitsAllRows(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users \(name, email, password_hash, role, email_verified_at\)`).
		WithArgs("Ana", "ana@x.com", "hash", "member", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
	mock.ExpectExec(`INSERT INTO profiles \(user_id, phone_number, address, city, country, zip_code, avatar_url\)`).
		WithArgs(int64(7), "0812", nil, "Bandung", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO course_carts (user_id, status) VALUES ($1, 'active')`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := store.CreateRegistration(context.Background(), anaRegistration())
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, models.RoleMember, created.Role)
	assert.Equal(t, "ana@x.com", created.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRegistrationRollsBackWhenProfileFails(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
	mock.ExpectExec(`INSERT INTO profiles`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.CreateRegistration(context.Background(), anaRegistration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert profile")
	require.NoError(t, mock.ExpectationsWereMet(), "cart insert must not run and the transaction must roll back")
}

func TestCreateRegistrationRollsBackWhenCartFails(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
	mock.ExpectExec(`INSERT INTO profiles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO course_carts`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.CreateRegistration(context.Background(), anaRegistration())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRegistrationMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		failOn     string
		want       error
	}{
		{"email", "users_email_key", "users", storage.ErrDuplicateEmail},
		{"phone", "profiles_phone_number_key", "profiles", storage.ErrDuplicatePhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newStoreWithMock(t)
			pgErr := &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint}

			mock.ExpectBegin()
			if tt.failOn == "users" {
				mock.ExpectQuery(`INSERT INTO users`).WillReturnError(pgErr)
			} else {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), time.Now(), time.Now()))
				mock.ExpectExec(`INSERT INTO profiles`).WillReturnError(pgErr)
			}
			mock.ExpectRollback()

			_, err := store.CreateRegistration(context.Background(), anaRegistration())
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, storage.ErrAlreadyExists)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindUserByEmail(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, email, .* FROM users WHERE email = \$1`).
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(7), "Ana", "ana@x.com", "hash", "member", nil, nil, nil, now, now))

	u, err := store.FindUserByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.False(t, u.Verified())
	assert.Nil(t, u.ResetToken)
}

func TestFindUserByEmailNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConsumeResetTokenGuardsReuse(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	q := `UPDATE users\s+SET password_hash = \$3, reset_token = NULL, reset_token_expiry = NULL, updated_at = \$4\s+WHERE id = \$1 AND reset_token = \$2 AND reset_token_expiry > \$4`
	mock.ExpectExec(q).WithArgs(int64(7), "tok", "newhash", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(7), "tok", "otherhash", now).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.ConsumeResetToken(context.Background(), 7, "tok", "newhash", now))
	err := store.ConsumeResetToken(context.Background(), 7, "tok", "otherhash", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEmailVerifiedOnlyOnce(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	q := `UPDATE users SET email_verified_at = \$2, updated_at = \$2 WHERE id = \$1 AND email_verified_at IS NULL`
	mock.ExpectExec(q).WithArgs(int64(7), now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(7), now).WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := store.MarkEmailVerified(context.Background(), 7, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.MarkEmailVerified(context.Background(), 7, now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateProfileRunsInTransaction(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()
	name := "Ana Maria"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET name = \$2`).WithArgs(int64(7), name, now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO profiles .* ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(int64(7), nil, nil, "Jakarta", nil, nil, nil, nil, now).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "profiles_phone_number_key"})
	mock.ExpectRollback()

	err := store.UpdateProfile(context.Background(), 7, models.ProfileUpdate{Name: &name, City: strPtr("Jakarta")}, now)
	assert.ErrorIs(t, err, storage.ErrDuplicatePhone)
	require.NoError(t, mock.ExpectationsWereMet())
}
