// Command createadmin promotes an existing account to admin, or creates a
// verified admin account when the email is not registered yet.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hongminglow/coursenese-be/internal/account"
	"github.com/hongminglow/coursenese-be/internal/auth"
	"github.com/hongminglow/coursenese-be/internal/config"
	"github.com/hongminglow/coursenese-be/internal/mailer"
	"github.com/hongminglow/coursenese-be/internal/models"
	postgres "github.com/hongminglow/coursenese-be/internal/storage/postgres"
)

// options are the parsed command-line flags.
type options struct {
	Email string
	Name  string
}

// admins is the slice of the account manager this command needs.
type admins interface {
	EnsureAdmin(ctx context.Context, in account.AdminInput) (models.User, bool, error)
}

func newCommand(exec func(ctx context.Context, opts options, out io.Writer) error) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "createadmin --email <email> [--name <name>]",
		Short: "Create or promote a Coursenese admin account",
		Long: `Promote an existing account to admin, or create a verified admin account
with an empty profile and an active cart when the email is not registered.

The password is read from the terminal and only used when the account is created.

Examples:
  createadmin --email root@coursenese.com
  createadmin -e ops@coursenese.com -n "Ops Team"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return exec(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "email of the admin account (required)")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "Administrator", "display name used when the account is created")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := newCommand(execute).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	manager := account.NewManager(account.Config{
		Store:  store,
		Tokens: tokens,
		Hasher: auth.NewPasswordHasher(cfg.BcryptCost),
		Mailer: mailer.LogSender{Logger: logger},
		Logger: logger,
	})
	return ensureAdmin(ctx, manager, opts, out, func() (string, error) { return confirmPassword(out) })
}

// ensureAdmin asks for the password up front. It is ignored when an existing
// account is promoted.
func ensureAdmin(ctx context.Context, svc admins, opts options, out io.Writer, password func() (string, error)) error {
	pw, err := password()
	if err != nil {
		return err
	}
	user, created, err := svc.EnsureAdmin(ctx, account.AdminInput{Name: opts.Name, Email: opts.Email, Password: pw})
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "created admin %s (id %d)\n", user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(out, "promoted %s (id %d) to admin\n", user.Email, user.ID)
	return nil
}
