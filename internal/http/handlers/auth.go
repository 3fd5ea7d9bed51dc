package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/http/respond"
	"github.com/hongminglow/coursenese-be/internal/middleware"
	"github.com/hongminglow/coursenese-be/internal/models/dto"
)

// Accounts is the account lifecycle used by AuthHandler.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (account.RegisterResult, error)
	Login(ctx context.Context, email, password string) (account.LoginResult, error)
	ChangePassword(ctx context.Context, in account.ChangePasswordInput) (bool, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in account.ResetPasswordInput) (bool, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, userID int64) (account.UserView, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// AuthHandler owns the /auth endpoints.
type AuthHandler struct {
	accounts Accounts
	guards   Guards
}

// NewAuthHandler constructs the handler. guards.RequireAuth protects /auth/me and /auth/logout.
func NewAuthHandler(accounts Accounts, guards Guards) *AuthHandler {
	return &AuthHandler{accounts: accounts, guards: guards}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/registeruser", h.handleRegister)
		r.Post("/loginuser", h.handleLogin)
		r.Post("/forgotpassword", h.handleForgotPassword)
		r.Post("/resetpassword", h.handleResetPassword)
		r.Post("/changepassword", h.handleChangePassword)
		r.Post("/resendverif", h.handleResendVerification)
		r.Get("/verifyemail", h.handleVerifyEmail)

		r.With(h.guards.RequireAuth).Get("/me", h.handleMe)
		r.With(h.guards.RequireAuth).Post("/logout", h.handleLogout)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		City:            req.City,
		Country:         req.Country,
		ZipCode:         req.ZipCode,
		AvatarURL:       req.ProfilePicture,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	msg := "Registration successful. Please check your email to verify your account."
	if !res.VerificationSent {
		msg = "Registration successful, but the verification email could not be sent. Please request a new verification email."
	}
	respond.Write(w, respond.Envelope{
		Code:             http.StatusCreated,
		Success:          true,
		Message:          msg,
		Data:             map[string]any{"user": res.User},
		NeedVerification: true,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "If the email is registered, a password reset link has been sent.", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	notified, err := h.accounts.ResetPassword(r.Context(), account.ResetPasswordInput{
		Email:       req.Email,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	msg := "Password has been reset successfully."
	if !notified {
		msg = "Password has been reset successfully, but the confirmation email could not be sent."
	}
	respond.JSON(w, http.StatusOK, msg, nil)
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	notified, err := h.accounts.ChangePassword(r.Context(), account.ChangePasswordInput{
		UserID:          req.UserID,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	msg := "Password changed successfully."
	if !notified {
		msg = "Password changed successfully, but the notification email could not be sent."
	}
	respond.JSON(w, http.StatusOK, msg, nil)
}

func (h *AuthHandler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Verification email has been resent.", nil)
}

func (h *AuthHandler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Email verified successfully. You can now log in.", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := userID(r)
	user, err := h.accounts.CurrentUser(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	if err := h.accounts.Logout(r.Context(), claims); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Logged out successfully", nil)
}
