package account

import (
	"strings"
	"time"

	"github.com/hongminglow/coursenese-be/internal/models"
)

// RegisterInput is the self-service signup form.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	Address         string
	City            string
	Country         string
	ZipCode         string
	AvatarURL       string
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
}

func (in RegisterInput) profile() models.Profile {
	return models.Profile{
		PhoneNumber: optional(in.PhoneNumber),
		Address:     optional(in.Address),
		City:        optional(in.City),
		Country:     optional(in.Country),
		ZipCode:     optional(in.ZipCode),
		AvatarURL:   optional(in.AvatarURL),
	}
}

// RegisterResult reports the created account and whether the verification email went out.
type RegisterResult struct {
	User             UserSummary
	VerificationSent bool
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserView is the account as shown to its owner.
type UserView struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Verified  bool           `json:"verified"`
	CreatedAt time.Time      `json:"created_at"`
	Profile   models.Profile `json:"profile"`
}

func newUserView(u models.UserWithProfile) UserView {
	return UserView{
		ID:        u.User.ID,
		Name:      u.User.Name,
		Email:     u.User.Email,
		Role:      u.User.Role,
		Verified:  u.User.Verified(),
		CreatedAt: u.User.CreatedAt,
		Profile:   u.Profile,
	}
}

// ProfileSummary is the slice of the profile returned on login.
type ProfileSummary struct {
	PhoneNumber *string `json:"phone_number"`
	AvatarURL   *string `json:"avatar_url"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
}

// LoginUser is the signed-in account as returned with a new session.
type LoginUser struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	Verified bool           `json:"verified"`
	Profile  ProfileSummary `json:"profile"`
}

func newLoginUser(u models.UserWithProfile) LoginUser {
	return LoginUser{
		ID:       u.User.ID,
		Name:     u.User.Name,
		Email:    u.User.Email,
		Role:     u.User.Role,
		Verified: u.User.Verified(),
		Profile: ProfileSummary{
			PhoneNumber: u.Profile.PhoneNumber,
			AvatarURL:   u.Profile.AvatarURL,
			City:        u.Profile.City,
			Country:     u.Profile.Country,
		},
	}
}

// LoginResult carries the session token and the signed-in account.
type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type ChangePasswordInput struct {
	UserID          int64
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type ResetPasswordInput struct {
	Email       string
	Token       string
	NewPassword string
}

// AdminInput describes an operator-created admin account.
type AdminInput struct {
	Name     string
	Email    string
	Password string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
