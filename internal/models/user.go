package models

import "time"

// User captures application-facing fields for an account.
type User struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             string     `json:"role"`
	EmailVerifiedAt  *time.Time `json:"email_verified_at,omitempty"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Verified reports whether the account has confirmed its email address.
func (u User) Verified() bool { return u.EmailVerifiedAt != nil }

// Profile holds the optional contact details attached 1:1 to a user.
type Profile struct {
	UserID      int64      `json:"user_id"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
	City        *string    `json:"city"`
	Country     *string    `json:"country"`
	ZipCode     *string    `json:"zip_code"`
	AvatarURL   *string    `json:"avatar_url"`
	Bio         *string    `json:"bio"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// UserWithProfile is a user joined with its profile row.
type UserWithProfile struct {
	User    User    `json:"user"`
	Profile Profile `json:"profile"`
}

// Registration is everything written by the registration transaction.
type Registration struct {
	User    User
	Profile Profile
}

// ProfileUpdate carries the fields a user may change on their profile. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	PhoneNumber *string
	Address     *string
	City        *string
	Country     *string
	ZipCode     *string
	AvatarURL   *string
	Bio         *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Address == nil && p.City == nil &&
		p.Country == nil && p.ZipCode == nil && p.AvatarURL == nil && p.Bio == nil
}
