package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/coursenese-be/internal/models"
)

// UpdateProfile changes the user name and profile columns in one transaction.
// Nil fields keep their stored value.
func (s *Store) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate, at time.Time) error {
	const upsertProfile = `
		INSERT INTO profiles (user_id, phone_number, address, city, country, zip_code, avatar_url, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_number = COALESCE(EXCLUDED.phone_number, profiles.phone_number),
			address = COALESCE(EXCLUDED.address, profiles.address),
			city = COALESCE(EXCLUDED.city, profiles.city),
			country = COALESCE(EXCLUDED.country, profiles.country),
			zip_code = COALESCE(EXCLUDED.zip_code, profiles.zip_code),
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
			bio = COALESCE(EXCLUDED.bio, profiles.bio),
			updated_at = EXCLUDED.updated_at`

	return s.inTx(ctx, func(ctx context.Context, tx DBTX) error {
		if upd.Name != nil {
			if err := execAffected(ctx, tx, `UPDATE users SET name = $2, updated_at = $3 WHERE id = $1`, userID, *upd.Name, at); err != nil {
				return fmt.Errorf("update user name: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, upsertProfile, userID, upd.PhoneNumber, upd.Address, upd.City,
			upd.Country, upd.ZipCode, upd.AvatarURL, upd.Bio, at)
		if err != nil {
			return fmt.Errorf("update profile: %w", mapError(err))
		}
		return nil
	})
}

// SetAvatarURL stores a new avatar url and returns the one it replaced.
func (s *Store) SetAvatarURL(ctx context.Context, userID int64, url string, at time.Time) (*string, error) {
	const query = `
		WITH prev AS (SELECT avatar_url FROM profiles WHERE user_id = $1)
		INSERT INTO profiles (user_id, avatar_url, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = EXCLUDED.updated_at
		RETURNING (SELECT avatar_url FROM prev)`

	var prev *string
	if err := s.db.QueryRowContext(ctx, query, userID, url, at).Scan(&prev); err != nil {
		return nil, fmt.Errorf("set avatar: %w", mapError(err))
	}
	return prev, nil
}
