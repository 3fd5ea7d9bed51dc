package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/avatar"
	"github.com/hongminglow/coursenese-be/internal/config"
	"github.com/hongminglow/coursenese-be/internal/mailer"
	"github.com/hongminglow/coursenese-be/internal/server"
	postgres "github.com/hongminglow/coursenese-be/internal/storage/postgres"
	"github.com/joho/godotenv"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	sender, err := newSender(cfg.Mail, logger)
	if err != nil {
		return err
	}

	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.RedisURL != "" {
		redisRevoker, err := auth.NewRedisRevokerFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisRevoker.Close()
		revoker = redisRevoker
		logger.Info("session revocation enabled")
	}

	avatars, err := newAvatarStore(ctx, cfg.Avatar)
	if err != nil {
		return err
	}

	manager := account.NewManager(account.Config{
		Store:          store,
		Tokens:         tokens,
		Hasher:         auth.NewPasswordHasher(cfg.BcryptCost),
		Mailer:         sender,
		Revoker:        revoker,
		Logger:         logger,
		FrontendURL:    cfg.FrontendURL,
		SessionTTL:     cfg.SessionTTL,
		VerifyTokenTTL: cfg.VerifyTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
		SendTimeout:    cfg.Mail.SendTimeout,
	})

	srv := server.New(cfg, server.Deps{Store: store, Accounts: manager, Avatars: avatars, Logger: logger})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Coursenese backend listening", slog.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("graceful shutdown error", slog.Any("error", err))
	}
	return nil
}

func newSender(cfg config.MailConfig, logger *slog.Logger) (mailer.Sender, error) {
	if cfg.Host == "" {
		logger.Warn("MAIL_HOST not set; emails are logged instead of sent")
		return mailer.LogSender{Logger: logger}, nil
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  cfg.SendTimeout,
	})
}

func newAvatarStore(ctx context.Context, cfg config.AvatarConfig) (avatar.Store, error) {
	if cfg.Backend != config.AvatarBackendS3 {
		return avatar.NewDiskStore(cfg.Dir, cfg.URLPrefix)
	}
	s3cfg := avatar.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}
	client, err := avatar.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return avatar.NewS3Store(client, s3cfg), nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}
}
