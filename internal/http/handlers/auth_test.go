package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRouter() (*mockAccounts, http.Handler) {
	accounts := &mockAccounts{}
	return accounts, newTestRouter(NewAuthHandler(accounts, testGuards))
}

func TestRegisterEndpoint(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("Register", mock.Anything, account.RegisterInput{
		Name: "Ana", Email: "ana@x.com", Password: "abcd1234", ConfirmPassword: "abcd1234", PhoneNumber: "+62811",
	}).Return(account.RegisterResult{
		User:             account.UserSummary{ID: 5, Name: "Ana", Email: "ana@x.com"},
		VerificationSent: true,
	}, nil)

	rec, env := do(t, h, http.MethodPost, "/auth/registeruser", "",
		`{"name":"Ana","email":"ana@x.com","password":"abcd1234","confirmPassword":"abcd1234","phone_number":"+62811"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.True(t, env.NeedVerification)
	assert.JSONEq(t, `{"user":{"id":5,"name":"Ana","email":"ana@x.com"}}`, string(env.Data))
	accounts.AssertExpectations(t)
}

func TestRegisterEndpointSendFailureStillCreated(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("Register", mock.Anything, mock.Anything).Return(account.RegisterResult{
		User: account.UserSummary{ID: 5},
	}, nil)

	rec, env := do(t, h, http.MethodPost, "/auth/registeruser", "", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, env.Message, "could not be sent")
}

func TestAuthErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("invalid email format"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("email is already registered"), http.StatusConflict},
		{"auth", apperr.Auth("wrong password"), http.StatusUnauthorized},
		{"not found", apperr.NotFound("user not found"), http.StatusNotFound},
		{"token", apperr.Token("reset token is invalid or has expired", nil), http.StatusBadRequest},
		{"server", apperr.Server("failed to fetch user", errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, h := newAuthRouter()
			accounts.On("Login", mock.Anything, "ana@x.com", "abcd1234").Return(account.LoginResult{}, tt.err)

			rec, env := do(t, h, http.MethodPost, "/auth/loginuser", "", `{"email":"ana@x.com","password":"abcd1234"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestLoginUnverifiedFlagsVerification(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("Login", mock.Anything, "ana@x.com", "abcd1234").Return(account.LoginResult{}, &apperr.Error{
		Kind: apperr.KindForbidden, Message: "email is not verified", NeedVerification: true,
	})

	rec, env := do(t, h, http.MethodPost, "/auth/loginuser", "", `{"email":"ana@x.com","password":"abcd1234"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, env.NeedVerification)
}

func TestMalformedJSON(t *testing.T) {
	_, h := newAuthRouter()
	rec, env := do(t, h, http.MethodPost, "/auth/loginuser", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON payload", env.Message)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("VerifyEmail", mock.Anything, "tok").Return(nil).Once()
	accounts.On("VerifyEmail", mock.Anything, "tok").Return(apperr.Conflict("email is already verified")).Once()

	rec, _ := do(t, h, http.MethodGet, "/auth/verifyemail?token=tok", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/auth/verifyemail?token=tok", "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPasswordEndpoints(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("ForgotPassword", mock.Anything, "ana@x.com").Return(nil)
	accounts.On("ResetPassword", mock.Anything, account.ResetPasswordInput{Email: "ana@x.com", Token: "t", NewPassword: "fresh1234"}).Return(false, nil)
	accounts.On("ChangePassword", mock.Anything, account.ChangePasswordInput{UserID: 5, OldPassword: "a", NewPassword: "b", ConfirmPassword: "b"}).Return(true, nil)
	accounts.On("ResendVerification", mock.Anything, "ana@x.com").Return(apperr.Server("failed to send verification email", errors.New("smtp")))

	rec, _ := do(t, h, http.MethodPost, "/auth/forgotpassword", "", `{"email":"ana@x.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/auth/resetpassword", "", `{"email":"ana@x.com","token":"t","new_password":"fresh1234"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.Message, "could not be sent")

	rec, env = do(t, h, http.MethodPost, "/auth/changepassword", "", `{"user_id":5,"old_password":"a","new_password":"b","confirm_password":"b"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully.", env.Message)

	rec, _ = do(t, h, http.MethodPost, "/auth/resendverif", "", `{"email":"ana@x.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	accounts.AssertExpectations(t)
}

func TestMeAndLogoutRequireSession(t *testing.T) {
	accounts, h := newAuthRouter()
	accounts.On("CurrentUser", mock.Anything, int64(1)).Return(account.UserView{ID: 1, Name: "Ana"}, nil)
	accounts.On("Logout", mock.Anything, mock.MatchedBy(func(c *auth.Claims) bool { return c.UserID == 1 })).Return(nil)

	rec, _ := do(t, h, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/auth/me", "forged", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/auth/me", "member", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"name":"Ana"`)

	rec, _ = do(t, h, http.MethodPost, "/auth/logout", "member", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	accounts.AssertExpectations(t)
}
