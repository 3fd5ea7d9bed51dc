package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/coursenese-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Uniqueness conflicts on specific columns. All of them match ErrAlreadyExists.
var (
	ErrDuplicateEmail = fmt.Errorf("email %w", ErrAlreadyExists)
	ErrDuplicatePhone = fmt.Errorf("phone number %w", ErrAlreadyExists)
	ErrDuplicateSlug  = fmt.Errorf("slug %w", ErrAlreadyExists)
)

// ErrCartEmpty is returned when checking out a cart without items.
var ErrCartEmpty = errors.New("cart is empty")

// UserStore is the credential store: accounts, reset tokens and verification state.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	FindUserWithProfile(ctx context.Context, id int64) (models.UserWithProfile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	// CreateRegistration inserts the user, its profile and an active cart atomically.
	CreateRegistration(ctx context.Context, reg models.Registration) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error
	SetRole(ctx context.Context, id int64, role string, at time.Time) error
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	// FindUserByResetToken matches email and token with an expiry later than now.
	FindUserByResetToken(ctx context.Context, email, token string, now time.Time) (models.User, error)
	// ConsumeResetToken stores the new hash and clears the token. ErrNotFound if the token was already used.
	ConsumeResetToken(ctx context.Context, id int64, token, hash string, now time.Time) error
	// MarkEmailVerified reports false when the user was already verified.
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) (bool, error)
}

// ProfileStore updates the profile side of an account.
type ProfileStore interface {
	FindUserWithProfile(ctx context.Context, id int64) (models.UserWithProfile, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate, at time.Time) error
	// SetAvatarURL returns the previous avatar url, if any.
	SetAvatarURL(ctx context.Context, userID int64, url string, at time.Time) (*string, error)
}

// CourseStore serves the public catalog and admin course management.
type CourseStore interface {
	ListPublishedCourses(ctx context.Context, f models.CourseFilter) ([]models.CourseSummary, int64, error)
	FindPublishedCourse(ctx context.Context, idOrSlug string) (models.CourseDetail, error)
	FindCourseByID(ctx context.Context, id int64) (models.Course, error)
	IsCourseOwned(ctx context.Context, userID, courseID int64) (bool, error)
	CreateCourse(ctx context.Context, c models.NewCourse) (models.Course, error)
	UpdateCourse(ctx context.Context, id int64, upd models.CourseUpdate, at time.Time) (models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	AddSection(ctx context.Context, courseID int64, title string, sort int) (models.Section, error)
	UpdateSection(ctx context.Context, id int64, upd models.SectionUpdate) (models.Section, error)
	DeleteSection(ctx context.Context, id int64) error
	AddLesson(ctx context.Context, l models.Lesson) (models.Lesson, error)
	UpdateLesson(ctx context.Context, id int64, upd models.LessonUpdate) (models.Lesson, error)
	DeleteLesson(ctx context.Context, id int64) error
	ListCourseComments(ctx context.Context, courseID int64, limit, offset int) ([]models.Comment, int64, error)
	RecordCourseView(ctx context.Context, courseID int64, userID *int64, at time.Time) error
}

// RatingStore persists course ratings.
type RatingStore interface {
	// UpsertRating reports created=true when a new row was inserted.
	UpsertRating(ctx context.Context, r models.Rating) (models.Rating, bool, error)
	ListApprovedRatings(ctx context.Context, courseID int64, limit, offset int) ([]models.Rating, error)
	RatingSummary(ctx context.Context, courseID int64) (models.RatingSummary, error)
	SetRatingApproval(ctx context.Context, courseID, ratingID int64, approved bool) (models.Rating, error)
}

// CartStore manages the single active cart of each user.
type CartStore interface {
	// ActiveCart returns the user's active cart, creating it when missing.
	ActiveCart(ctx context.Context, userID int64) (models.Cart, error)
	CountCartItems(ctx context.Context, userID int64) (int64, error)
	AddCartItem(ctx context.Context, userID, courseID, priceInt int64) error
	RemoveCartItem(ctx context.Context, userID, courseID int64) error
	ClearCart(ctx context.Context, userID int64) error
	// Checkout grants ownership of every item and opens a fresh active cart.
	Checkout(ctx context.Context, userID int64) ([]int64, error)
}

// PortfolioStore reads published portfolios.
type PortfolioStore interface {
	ListPublishedPortfolios(ctx context.Context) ([]models.Portfolio, error)
	FindPublishedPortfolio(ctx context.Context, slug string) (models.Portfolio, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
