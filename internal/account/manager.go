// Package account implements the account lifecycle: registration, login,
// email verification and password recovery.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/coursenese-be/internal/apperr"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/mailer"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
	"github.com/hongminglow/coursenese-be/internal/validation"
)

// ErrTokenRevoked is returned by Authenticate for a logged-out session.
var ErrTokenRevoked = errors.New("token has been revoked")

// Tokens issues and verifies signed tokens.
type Tokens interface {
	IssueSession(user models.User, ttl time.Duration) (string, error)
	IssueVerification(user models.User, ttl time.Duration) (string, error)
	Verify(token string, purpose auth.Purpose) (*auth.Claims, error)
}

// Hasher hashes passwords and checks them against stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// Config lists the Manager's collaborators.
type Config struct {
	Store   storage.UserStore
	Tokens  Tokens
	Hasher  Hasher
	Mailer  mailer.Sender
	Revoker auth.Revoker
	Logger  *slog.Logger
	Now     func() time.Time

	FrontendURL    string
	SessionTTL     time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	SendTimeout    time.Duration
}

// Manager runs account operations against the credential store.
type Manager struct {
	store   storage.UserStore
	tokens  Tokens
	hasher  Hasher
	mailer  mailer.Sender
	revoker auth.Revoker
	logger  *slog.Logger
	now     func() time.Time

	frontendURL    string
	sessionTTL     time.Duration
	verifyTokenTTL time.Duration
	resetTokenTTL  time.Duration
	sendTimeout    time.Duration
}

// NewManager builds a Manager, filling unset collaborators and TTLs with defaults.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		store:          cfg.Store,
		tokens:         cfg.Tokens,
		hasher:         cfg.Hasher,
		mailer:         cfg.Mailer,
		revoker:        cfg.Revoker,
		logger:         cfg.Logger,
		now:            cfg.Now,
		frontendURL:    strings.TrimRight(cfg.FrontendURL, "/"),
		sessionTTL:     cfg.SessionTTL,
		verifyTokenTTL: cfg.VerifyTokenTTL,
		resetTokenTTL:  cfg.ResetTokenTTL,
		sendTimeout:    cfg.SendTimeout,
	}
	if m.hasher == nil {
		m.hasher = auth.NewPasswordHasher(10)
	}
	if m.revoker == nil {
		m.revoker = auth.NopRevoker{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sessionTTL <= 0 {
		m.sessionTTL = 2 * time.Hour
	}
	if m.verifyTokenTTL <= 0 {
		m.verifyTokenTTL = 2 * time.Hour
	}
	if m.resetTokenTTL <= 0 {
		m.resetTokenTTL = 15 * time.Minute
	}
	if m.sendTimeout <= 0 {
		m.sendTimeout = 10 * time.Second
	}
	return m
}

const (
	msgInvalidEmail = "invalid email format"
	msgWeakPassword = "password must be at least 8 characters and contain letters and numbers"
)

// Register creates the user, profile and cart atomically, then sends the verification email.
// A failed send does not undo the account; the result reports VerificationSent=false.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.normalize()
	if in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return RegisterResult{}, apperr.Validation("email, password and confirmPassword are required")
	}
	if !validation.Email(in.Email) {
		return RegisterResult{}, apperr.Validation(msgInvalidEmail)
	}
	if !validation.Password(in.Password) {
		return RegisterResult{}, apperr.Validation(msgWeakPassword)
	}
	if in.Password != in.ConfirmPassword {
		return RegisterResult{}, apperr.Validation("password confirmation does not match")
	}

	exists, err := m.store.EmailExists(ctx, in.Email)
	if err != nil {
		return RegisterResult{}, apperr.Server("failed to register user", err)
	}
	if exists {
		accountEvents.WithLabelValues("register", "conflict").Inc()
		return RegisterResult{}, apperr.Conflict("email is already registered")
	}
	if in.PhoneNumber != "" {
		exists, err := m.store.PhoneExists(ctx, in.PhoneNumber)
		if err != nil {
			return RegisterResult{}, apperr.Server("failed to register user", err)
		}
		if exists {
			accountEvents.WithLabelValues("register", "conflict").Inc()
			return RegisterResult{}, apperr.Conflict("phone number is already registered")
		}
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, apperr.Server("failed to hash password", err)
	}

	created, err := m.store.CreateRegistration(ctx, models.Registration{
		User:    models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: models.RoleMember},
		Profile: in.profile(),
	})
	if err != nil {
		if cerr := conflictFromStore(err); cerr != nil {
			accountEvents.WithLabelValues("register", "conflict").Inc()
			return RegisterResult{}, cerr
		}
		accountEvents.WithLabelValues("register", "failure").Inc()
		return RegisterResult{}, apperr.Server("failed to register user", err)
	}
	accountEvents.WithLabelValues("register", "success").Inc()

	result := RegisterResult{User: UserSummary{ID: created.ID, Name: created.Name, Email: created.Email}}
	result.VerificationSent = m.sendVerification(ctx, created) == nil
	return result, nil
}

// Login checks credentials and issues a session token. Unverified accounts are refused.
func (m *Manager) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, apperr.Validation("email and password are required")
	}
	if !validation.Email(email) {
		return LoginResult{}, apperr.Validation(msgInvalidEmail)
	}
	if len(password) < auth.MinPasswordLength {
		return LoginResult{}, apperr.Validation("password must be at least 8 characters")
	}

	user, err := m.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			accountEvents.WithLabelValues("login", "unknown_user").Inc()
			return LoginResult{}, apperr.Auth("user not found")
		}
		return LoginResult{}, apperr.Server("failed to fetch user", err)
	}
	if err := m.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			accountEvents.WithLabelValues("login", "wrong_password").Inc()
			return LoginResult{}, apperr.Auth("wrong password")
		}
		return LoginResult{}, apperr.Server("failed to verify password", err)
	}
	if !user.Verified() {
		accountEvents.WithLabelValues("login", "unverified").Inc()
		return LoginResult{}, &apperr.Error{
			Kind:             apperr.KindForbidden,
			Message:          "email is not verified, please verify your email first",
			NeedVerification: true,
		}
	}

	full, err := m.store.FindUserWithProfile(ctx, user.ID)
	if err != nil {
		return LoginResult{}, apperr.Server("failed to fetch profile", err)
	}
	token, err := m.tokens.IssueSession(user, m.sessionTTL)
	if err != nil {
		return LoginResult{}, apperr.Server("failed to generate token", err)
	}
	accountEvents.WithLabelValues("login", "success").Inc()
	return LoginResult{Token: token, User: newLoginUser(full)}, nil
}

// ChangePassword replaces the password after checking the old one.
// The returned bool reports whether the notification email was delivered.
func (m *Manager) ChangePassword(ctx context.Context, in ChangePasswordInput) (bool, error) {
	if in.UserID <= 0 || in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return false, apperr.Validation("user_id, old_password, new_password and confirm_password are required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return false, apperr.Validation("new password confirmation does not match")
	}
	if !validation.Password(in.NewPassword) {
		return false, apperr.Validation(msgWeakPassword)
	}

	user, err := m.store.FindUserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, apperr.NotFound("user not found")
		}
		return false, apperr.Server("failed to fetch user", err)
	}
	if err := m.hasher.Verify(user.PasswordHash, in.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return false, apperr.Auth("old password is incorrect")
		}
		return false, apperr.Server("failed to verify password", err)
	}

	hash, err := m.hasher.Hash(in.NewPassword)
	if err != nil {
		return false, apperr.Server("failed to hash password", err)
	}
	now := m.now()
	if err := m.store.UpdatePasswordHash(ctx, user.ID, hash, now); err != nil {
		return false, apperr.Server("failed to update password", err)
	}
	accountEvents.WithLabelValues("change_password", "success").Inc()

	return m.sendPasswordChanged(ctx, user, now) == nil, nil
}

// ForgotPassword issues a reset token and emails the reset link.
// Unknown emails succeed silently so the endpoint does not reveal which accounts exist.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email is required")
	}
	if !validation.Email(email) {
		return apperr.Validation(msgInvalidEmail)
	}

	user, err := m.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			accountEvents.WithLabelValues("forgot_password", "unknown_user").Inc()
			return nil
		}
		return apperr.Server("failed to fetch user", err)
	}

	token, err := auth.NewOpaqueToken(m.now(), m.resetTokenTTL)
	if err != nil {
		return apperr.Server("failed to generate reset token", err)
	}
	if err := m.store.SetResetToken(ctx, user.ID, token.Value, token.ExpiresAt); err != nil {
		return apperr.Server("failed to store reset token", err)
	}

	link := m.link("/reset-password", url.Values{"token": {token.Value}, "email": {user.Email}})
	msg, err := mailer.ResetPasswordEmail(user.Email, user.Name, link, humanize(m.resetTokenTTL))
	if err != nil {
		return apperr.Server("failed to render reset email", err)
	}
	if err := m.send(ctx, "reset_password", msg); err != nil {
		accountEvents.WithLabelValues("forgot_password", "failure").Inc()
		return apperr.Server("failed to send reset password email", err)
	}
	accountEvents.WithLabelValues("forgot_password", "success").Inc()
	return nil
}

// ResetPassword redeems a reset token. The token is cleared in the same write as the new hash.
// The returned bool reports whether the confirmation email was delivered.
func (m *Manager) ResetPassword(ctx context.Context, in ResetPasswordInput) (bool, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Token = strings.TrimSpace(in.Token)
	if in.Email == "" || in.Token == "" || in.NewPassword == "" {
		return false, apperr.Validation("email, token and new_password are required")
	}
	if !validation.Email(in.Email) {
		return false, apperr.Validation(msgInvalidEmail)
	}
	if !validation.Password(in.NewPassword) {
		return false, apperr.Validation(msgWeakPassword)
	}

	now := m.now()
	user, err := m.store.FindUserByResetToken(ctx, in.Email, in.Token, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, apperr.Token("reset token is invalid or has expired", nil)
		}
		return false, apperr.Server("failed to fetch user", err)
	}

	hash, err := m.hasher.Hash(in.NewPassword)
	if err != nil {
		return false, apperr.Server("failed to hash password", err)
	}
	if err := m.store.ConsumeResetToken(ctx, user.ID, in.Token, hash, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, apperr.Token("reset token is invalid or has expired", nil)
		}
		return false, apperr.Server("failed to reset password", err)
	}
	accountEvents.WithLabelValues("reset_password", "success").Inc()

	return m.sendPasswordChanged(ctx, user, now) == nil, nil
}

// ResendVerification issues a fresh verification link for an unverified account.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email is required")
	}
	if !validation.Email(email) {
		return apperr.Validation(msgInvalidEmail)
	}

	user, err := m.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Server("failed to fetch user", err)
	}
	if user.Verified() {
		return apperr.Conflict("email is already verified")
	}
	if err := m.sendVerification(ctx, user); err != nil {
		return apperr.Server("failed to send verification email", err)
	}
	return nil
}

// VerifyEmail consumes a verification token. A second use of the same token is a conflict.
func (m *Manager) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("verification token is required")
	}

	claims, err := m.tokens.Verify(token, auth.PurposeEmailVerification)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return apperr.Token("verification link has expired", err)
		}
		return apperr.Token("invalid verification token", err)
	}

	user, err := m.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Server("failed to fetch user", err)
	}
	if user.Verified() {
		return apperr.Conflict("email is already verified")
	}

	changed, err := m.store.MarkEmailVerified(ctx, user.ID, m.now())
	if err != nil {
		return apperr.Server("failed to verify email", err)
	}
	if !changed {
		return apperr.Conflict("email is already verified")
	}
	accountEvents.WithLabelValues("verify_email", "success").Inc()
	return nil
}

// CurrentUser returns the account behind a session.
func (m *Manager) CurrentUser(ctx context.Context, userID int64) (UserView, error) {
	full, err := m.store.FindUserWithProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return UserView{}, apperr.NotFound("user not found")
		}
		return UserView{}, apperr.Server("failed to fetch user", err)
	}
	return newUserView(full), nil
}

// Authenticate verifies a session bearer token and checks the revocation list.
func (m *Manager) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := m.tokens.Verify(token, auth.PurposeSession)
	if err != nil {
		return nil, err
	}
	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Server("failed to check session", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the session when a revocation list is configured.
// Otherwise it is a no-op and the client discards the token.
func (m *Manager) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperr.Auth("missing session")
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := m.revoker.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return apperr.Server("failed to revoke session", err)
	}
	accountEvents.WithLabelValues("logout", "success").Inc()
	return nil
}

// EnsureAdmin creates a verified admin account, or promotes an existing one.
// created reports whether a new account was inserted.
func (m *Manager) EnsureAdmin(ctx context.Context, in AdminInput) (models.User, bool, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if !validation.Email(in.Email) {
		return models.User{}, false, apperr.Validation(msgInvalidEmail)
	}

	now := m.now()
	existing, err := m.store.FindUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if err := m.store.SetRole(ctx, existing.ID, models.RoleAdmin, now); err != nil {
			return models.User{}, false, apperr.Server("failed to promote user", err)
		}
		existing.Role = models.RoleAdmin
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return models.User{}, false, apperr.Server("failed to fetch user", err)
	}

	if in.Name == "" {
		return models.User{}, false, apperr.Validation("name is required")
	}
	if !validation.Password(in.Password) {
		return models.User{}, false, apperr.Validation(msgWeakPassword)
	}
	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, false, apperr.Server("failed to hash password", err)
	}
	created, err := m.store.CreateRegistration(ctx, models.Registration{
		User: models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: models.RoleAdmin, EmailVerifiedAt: &now},
	})
	if err != nil {
		if cerr := conflictFromStore(err); cerr != nil {
			return models.User{}, false, cerr
		}
		return models.User{}, false, apperr.Server("failed to create admin", err)
	}
	return created, true, nil
}

func (m *Manager) sendVerification(ctx context.Context, user models.User) error {
	token, err := m.tokens.IssueVerification(user, m.verifyTokenTTL)
	if err != nil {
		m.logger.ErrorContext(ctx, "issue verification token failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return err
	}
	link := m.link("/verify-email", url.Values{"token": {token}})
	msg, err := mailer.VerificationEmail(user.Email, user.Name, link, humanize(m.verifyTokenTTL))
	if err != nil {
		return err
	}
	return m.send(ctx, "verification", msg)
}

func (m *Manager) sendPasswordChanged(ctx context.Context, user models.User, at time.Time) error {
	msg, err := mailer.PasswordChangedEmail(user.Email, user.Name, at.UTC().Format("Jan 2, 2006 15:04 MST"))
	if err != nil {
		return err
	}
	return m.send(ctx, "password_changed", msg)
}

// send delivers msg within sendTimeout. The request context's cancellation is
// detached because the outcome is reported back to the client.
func (m *Manager) send(ctx context.Context, kind string, msg mailer.Message) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.sendTimeout)
	defer cancel()

	err := m.mailer.Send(sendCtx, msg)
	emailsSent.WithLabelValues(kind, outcome(err)).Inc()
	if err != nil {
		m.logger.WarnContext(ctx, "email delivery failed",
			slog.String("kind", kind),
			slog.String("to", msg.To),
			slog.Any("error", err),
		)
	}
	return err
}

func (m *Manager) link(path string, q url.Values) string {
	return m.frontendURL + path + "?" + q.Encode()
}

func conflictFromStore(err error) *apperr.Error {
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		return apperr.Conflict("email is already registered")
	case errors.Is(err, storage.ErrDuplicatePhone):
		return apperr.Conflict("phone number is already registered")
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Conflict("account already exists")
	}
	return nil
}

func humanize(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return strconv.Itoa(int(d/time.Hour)) + " hours"
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return strconv.Itoa(int(d/time.Minute)) + " minutes"
	default:
		return d.String()
	}
}
