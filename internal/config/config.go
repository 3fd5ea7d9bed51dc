package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Avatar storage backends.
const (
	AvatarBackendDisk = "disk"
	AvatarBackendS3   = "s3"
)

// Config holds runtime configuration sourced from env vars and an optional config file.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	CORSOrigins []string
	FrontendURL string
	LogLevel    string
	BcryptCost  int

	SessionTTL     time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration

	Mail   MailConfig
	Avatar AvatarConfig

	// RedisURL enables the session revocation list when set.
	RedisURL string
}

// MailConfig describes the SMTP relay. An empty Host selects the log sender.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

type AvatarConfig struct {
	Backend   string
	Dir       string
	URLPrefix string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// Load reads configuration from the environment and performs validation.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "coursenese-backend")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("bcrypt_cost", 10)

	v.SetDefault("session_ttl", "2h")
	v.SetDefault("verify_token_ttl", "2h")
	v.SetDefault("reset_token_ttl", "15m")

	v.SetDefault("mail_host", "")
	v.SetDefault("mail_port", 465)
	v.SetDefault("mail_username", "")
	v.SetDefault("mail_password", "")
	v.SetDefault("mail_from", "Coursenese <no-reply@coursenese.com>")
	v.SetDefault("mail_send_timeout", "10s")

	v.SetDefault("redis_url", "")

	v.SetDefault("avatar_backend", AvatarBackendDisk)
	v.SetDefault("avatar_dir", "public/profile-picture")
	v.SetDefault("avatar_url_prefix", "/profile-picture")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_public_base_url", "")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:        fallback(v.GetString("port"), "8080"),
		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:   strings.TrimSpace(v.GetString("jwt_secret")),
		JWTIssuer:   fallback(v.GetString("jwt_issuer"), "coursenese-backend"),
		CORSOrigins: parseCSV(v.GetString("cors_allowed_origins")),
		FrontendURL: strings.TrimRight(fallback(v.GetString("frontend_url"), "http://localhost:3000"), "/"),
		LogLevel:    fallback(v.GetString("log_level"), "info"),
		BcryptCost:  v.GetInt("bcrypt_cost"),

		SessionTTL:     v.GetDuration("session_ttl"),
		VerifyTokenTTL: v.GetDuration("verify_token_ttl"),
		ResetTokenTTL:  v.GetDuration("reset_token_ttl"),

		Mail: MailConfig{
			Host:        strings.TrimSpace(v.GetString("mail_host")),
			Port:        v.GetInt("mail_port"),
			Username:    v.GetString("mail_username"),
			Password:    v.GetString("mail_password"),
			From:        v.GetString("mail_from"),
			SendTimeout: v.GetDuration("mail_send_timeout"),
		},
		Avatar: AvatarConfig{
			Backend:         strings.ToLower(fallback(v.GetString("avatar_backend"), AvatarBackendDisk)),
			Dir:             fallback(v.GetString("avatar_dir"), "public/profile-picture"),
			URLPrefix:       strings.TrimRight(fallback(v.GetString("avatar_url_prefix"), "/profile-picture"), "/"),
			S3Bucket:        strings.TrimSpace(v.GetString("s3_bucket")),
			S3Region:        fallback(v.GetString("s3_region"), "us-east-1"),
			S3Endpoint:      strings.TrimSpace(v.GetString("s3_endpoint")),
			S3AccessKey:     v.GetString("s3_access_key"),
			S3SecretKey:     v.GetString("s3_secret_key"),
			S3PublicBaseURL: strings.TrimRight(v.GetString("s3_public_base_url"), "/"),
		},
		RedisURL: strings.TrimSpace(v.GetString("redis_url")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTL <= 0 || c.VerifyTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return errors.New("SESSION_TTL, VERIFY_TOKEN_TTL and RESET_TOKEN_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch c.Avatar.Backend {
	case AvatarBackendDisk:
	case AvatarBackendS3:
		if c.Avatar.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when AVATAR_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown AVATAR_BACKEND %q", c.Avatar.Backend)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// SlogLevel translates LOG_LEVEL into a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
