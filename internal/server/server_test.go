package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/avatar"
	"github.com/hongminglow/coursenese-be/internal/config"
	"github.com/hongminglow/coursenese-be/internal/mailer"
	"github.com/hongminglow/coursenese-be/internal/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, sqlmock.Sqlmock, string) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := postgres.New(db, logger)
	tokens, err := auth.NewTokenManager("secret", "coursenese")
	require.NoError(t, err)

	dir := t.TempDir()
	avatars, err := avatar.NewDiskStore(dir, "/profile-picture")
	require.NoError(t, err)

	cfg := config.Config{
		Port:        "0",
		CORSOrigins: []string{"https://coursenese.com"},
		Avatar:      config.AvatarConfig{Backend: config.AvatarBackendDisk, Dir: dir, URLPrefix: "/profile-picture"},
	}
	manager := account.NewManager(account.Config{
		Store:  store,
		Tokens: tokens,
		Mailer: &mailer.Recorder{},
		Logger: logger,
	})
	return NewRouter(cfg, Deps{Store: store, Accounts: manager, Avatars: avatars, Logger: logger}), mock, dir
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouterHealthAndReady(t *testing.T) {
	h, mock, _ := newTestServer(t)
	mock.ExpectPing()

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(h, "/ready").Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterMetrics(t *testing.T) {
	h, _, _ := newTestServer(t)
	get(h, "/health")

	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coursenese_http_requests_total")
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := get(h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRouterProtectedRoutes(t *testing.T) {
	h, _, _ := newTestServer(t)
	for _, path := range []string{"/auth/me", "/cart", "/user/profile"} {
		assert.Equal(t, http.StatusUnauthorized, get(h, path).Code, path)
	}
}

func TestRouterServesAvatars(t *testing.T) {
	h, _, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IMG-1-a.png"), []byte("png"), 0o644))

	rec := get(h, "/profile-picture/IMG-1-a.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestRouterCORSPreflight(t *testing.T) {
	h, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/auth/loginuser", strings.NewReader(""))
	req.Header.Set("Origin", "https://coursenese.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://coursenese.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
