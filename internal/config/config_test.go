package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/coursenese")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "coursenese-backend", cfg.JWTIssuer)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2*time.Hour, cfg.VerifyTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, 10*time.Second, cfg.Mail.SendTimeout)
	assert.Equal(t, AvatarBackendDisk, cfg.Avatar.Backend)
	assert.Equal(t, "/profile-picture", cfg.Avatar.URLPrefix)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "2000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("FRONTEND_URL", "https://coursenese.com/")
	t.Setenv("AVATAR_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "avatars")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":2000", cfg.HTTPAddress())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "https://coursenese.com", cfg.FrontendURL)
	assert.Equal(t, AvatarBackendS3, cfg.Avatar.Backend)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL is required"},
		{"missing jwt secret", map[string]string{"JWT_SECRET": "  "}, "JWT_SECRET is required"},
		{"zero reset ttl", map[string]string{"RESET_TOKEN_TTL": "0s"}, "must be positive"},
		{"bcrypt cost too high", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"unknown avatar backend", map[string]string{"AVATAR_BACKEND": "ftp"}, "unknown AVATAR_BACKEND"},
		{"s3 without bucket", map[string]string{"AVATAR_BACKEND": "s3"}, "S3_BUCKET is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseCSV(""))
	assert.Equal(t, []string{"a", "b"}, parseCSV(" a ,b"))
}
