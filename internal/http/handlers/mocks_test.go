package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	switch token {
	case "member":
		return &auth.Claims{UserID: 1, Email: "ana@x.com", Role: models.RoleMember}, nil
	case "admin":
		return &auth.Claims{UserID: 9, Email: "root@x.com", Role: models.RoleAdmin}, nil
	}
	return nil, auth.ErrInvalidToken
}

var testGuards = NewGuards(stubAuthenticator{})

type registrar interface{ Register(chi.Router) }

func newTestRouter(hs ...registrar) http.Handler {
	r := chi.NewRouter()
	for _, h := range hs {
		h.Register(r)
	}
	return r
}

type envelope struct {
	Code             int             `json:"code"`
	Success          bool            `json:"success"`
	Message          string          `json:"message"`
	Data             json.RawMessage `json:"data"`
	NeedVerification bool            `json:"needVerification"`
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, in account.RegisterInput) (account.RegisterResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(account.RegisterResult), args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, email, password string) (account.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(account.LoginResult), args.Error(1)
}

func (m *mockAccounts) ChangePassword(ctx context.Context, in account.ChangePasswordInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccounts) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, in account.ResetPasswordInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccounts) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAccounts) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAccounts) CurrentUser(ctx context.Context, userID int64) (account.UserView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(account.UserView), args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

type mockCourses struct{ mock.Mock }

func (m *mockCourses) ListPublishedCourses(ctx context.Context, f models.CourseFilter) ([]models.CourseSummary, int64, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]models.CourseSummary)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *mockCourses) FindPublishedCourse(ctx context.Context, idOrSlug string) (models.CourseDetail, error) {
	args := m.Called(ctx, idOrSlug)
	return args.Get(0).(models.CourseDetail), args.Error(1)
}

func (m *mockCourses) FindCourseByID(ctx context.Context, id int64) (models.Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Course), args.Error(1)
}

func (m *mockCourses) IsCourseOwned(ctx context.Context, userID, courseID int64) (bool, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCourses) CreateCourse(ctx context.Context, c models.NewCourse) (models.Course, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.Course), args.Error(1)
}

func (m *mockCourses) UpdateCourse(ctx context.Context, id int64, upd models.CourseUpdate, at time.Time) (models.Course, error) {
	args := m.Called(ctx, id, upd, at)
	return args.Get(0).(models.Course), args.Error(1)
}

func (m *mockCourses) DeleteCourse(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCourses) AddSection(ctx context.Context, courseID int64, title string, sort int) (models.Section, error) {
	args := m.Called(ctx, courseID, title, sort)
	return args.Get(0).(models.Section), args.Error(1)
}

func (m *mockCourses) UpdateSection(ctx context.Context, id int64, upd models.SectionUpdate) (models.Section, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.Section), args.Error(1)
}

func (m *mockCourses) DeleteSection(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCourses) AddLesson(ctx context.Context, l models.Lesson) (models.Lesson, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(models.Lesson), args.Error(1)
}

func (m *mockCourses) UpdateLesson(ctx context.Context, id int64, upd models.LessonUpdate) (models.Lesson, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(models.Lesson), args.Error(1)
}

func (m *mockCourses) DeleteLesson(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCourses) ListCourseComments(ctx context.Context, courseID int64, limit, offset int) ([]models.Comment, int64, error) {
	args := m.Called(ctx, courseID, limit, offset)
	out, _ := args.Get(0).([]models.Comment)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *mockCourses) RecordCourseView(ctx context.Context, courseID int64, userID *int64, at time.Time) error {
	return m.Called(ctx, courseID, userID, at).Error(0)
}

type mockRatings struct{ mock.Mock }

func (m *mockRatings) UpsertRating(ctx context.Context, r models.Rating) (models.Rating, bool, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.Rating), args.Bool(1), args.Error(2)
}

func (m *mockRatings) ListApprovedRatings(ctx context.Context, courseID int64, limit, offset int) ([]models.Rating, error) {
	args := m.Called(ctx, courseID, limit, offset)
	out, _ := args.Get(0).([]models.Rating)
	return out, args.Error(1)
}

func (m *mockRatings) RatingSummary(ctx context.Context, courseID int64) (models.RatingSummary, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(models.RatingSummary), args.Error(1)
}

func (m *mockRatings) SetRatingApproval(ctx context.Context, courseID, ratingID int64, approved bool) (models.Rating, error) {
	args := m.Called(ctx, courseID, ratingID, approved)
	return args.Get(0).(models.Rating), args.Error(1)
}

type mockCarts struct{ mock.Mock }

func (m *mockCarts) ActiveCart(ctx context.Context, userID int64) (models.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Cart), args.Error(1)
}

func (m *mockCarts) CountCartItems(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCarts) AddCartItem(ctx context.Context, userID, courseID, priceInt int64) error {
	return m.Called(ctx, userID, courseID, priceInt).Error(0)
}

func (m *mockCarts) RemoveCartItem(ctx context.Context, userID, courseID int64) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func (m *mockCarts) ClearCart(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockCarts) Checkout(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]int64)
	return out, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) FindUserWithProfile(ctx context.Context, id int64) (models.UserWithProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.UserWithProfile), args.Error(1)
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate, at time.Time) error {
	return m.Called(ctx, userID, upd, at).Error(0)
}

func (m *mockProfiles) SetAvatarURL(ctx context.Context, userID int64, url string, at time.Time) (*string, error) {
	args := m.Called(ctx, userID, url, at)
	prev, _ := args.Get(0).(*string)
	return prev, args.Error(1)
}

type mockAvatars struct{ mock.Mock }

func (m *mockAvatars) Save(ctx context.Context, userID int64, ext string, body io.Reader, size int64) (string, error) {
	args := m.Called(ctx, userID, ext, body, size)
	return args.String(0), args.Error(1)
}

func (m *mockAvatars) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
