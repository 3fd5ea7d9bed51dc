package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
)

const userColumns = `id, name, email, password_hash, role, email_verified_at, reset_token, reset_token_expiry, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerifiedAt,
		&u.ResetToken, &u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, mapError(err)
	}
	return u, nil
}

// FindUserByEmail fetches a user by exact email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindUserWithProfile joins a user with its profile. Missing profiles yield empty fields.
func (s *Store) FindUserWithProfile(ctx context.Context, id int64) (models.UserWithProfile, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.email_verified_at, u.reset_token,
			u.reset_token_expiry, u.created_at, u.updated_at,
			p.phone_number, p.address, p.city, p.country, p.zip_code, p.avatar_url, p.bio, p.created_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`

	var out models.UserWithProfile
	u := &out.User
	p := &out.Profile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerifiedAt, &u.ResetToken,
		&u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
		&p.PhoneNumber, &p.Address, &p.City, &p.Country, &p.ZipCode, &p.AvatarURL, &p.Bio, &p.CreatedAt,
	)
	if err != nil {
		return models.UserWithProfile{}, mapError(err)
	}
	p.UserID = u.ID
	return out, nil
}

// EmailExists reports whether an account uses the email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, mapError(err)
}

// PhoneExists reports whether a profile uses the phone number.
func (s *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE phone_number = $1)`, phone).Scan(&exists)
	return exists, mapError(err)
}

// CreateRegistration inserts the user, its profile and an active cart in one transaction.
// Any failure rolls back all three rows.
func (s *Store) CreateRegistration(ctx context.Context, reg models.Registration) (models.User, error) {
	const insertUser = `
		INSERT INTO users (name, email, password_hash, role, email_verified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	const insertProfile = `
		INSERT INTO profiles (user_id, phone_number, address, city, country, zip_code, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	const insertCart = `INSERT INTO course_carts (user_id, status) VALUES ($1, 'active')`

	created := reg.User
	if created.Role == "" {
		created.Role = models.RoleMember
	}
	err := s.inTx(ctx, func(ctx context.Context, tx DBTX) error {
		err := tx.QueryRowContext(ctx, insertUser, created.Name, created.Email, created.PasswordHash, created.Role, created.EmailVerifiedAt).
			Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", mapError(err))
		}
		p := reg.Profile
		if _, err := tx.ExecContext(ctx, insertProfile, created.ID, p.PhoneNumber, p.Address, p.City, p.Country, p.ZipCode, p.AvatarURL); err != nil {
			return fmt.Errorf("insert profile: %w", mapError(err))
		}
		if _, err := tx.ExecContext(ctx, insertCart, created.ID); err != nil {
			return fmt.Errorf("insert cart: %w", mapError(err))
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error {
	return execAffected(ctx, s.db, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
}

// SetRole changes the account role.
func (s *Store) SetRole(ctx context.Context, id int64, role string, at time.Time) error {
	return execAffected(ctx, s.db, `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`, id, role, at)
}

// SetResetToken stores a reset token, overwriting any previous one.
func (s *Store) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	return execAffected(ctx, s.db, `UPDATE users SET reset_token = $2, reset_token_expiry = $3 WHERE id = $1`, id, token, expiry)
}

// FindUserByResetToken returns the user whose unexpired token matches.
func (s *Store) FindUserByResetToken(ctx context.Context, email, token string, now time.Time) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users
		WHERE email = $1 AND reset_token = $2 AND reset_token_expiry > $3`
	return scanUser(s.db.QueryRowContext(ctx, query, email, token, now))
}

// ConsumeResetToken sets the new hash and clears the token in one guarded update,
// so a token can be redeemed at most once.
func (s *Store) ConsumeResetToken(ctx context.Context, id int64, token, hash string, now time.Time) error {
	const query = `
		UPDATE users
		SET password_hash = $3, reset_token = NULL, reset_token_expiry = NULL, updated_at = $4
		WHERE id = $1 AND reset_token = $2 AND reset_token_expiry > $4`
	return execAffected(ctx, s.db, query, id, token, hash, now)
}

// MarkEmailVerified stamps email_verified_at once.
func (s *Store) MarkEmailVerified(ctx context.Context, id int64, at time.Time) (bool, error) {
	err := execAffected(ctx, s.db, `UPDATE users SET email_verified_at = $2, updated_at = $2 WHERE id = $1 AND email_verified_at IS NULL`, id, at)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
