package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/auth"
	"github.com/betna-immo/betna/internal/billing"
	"github.com/betna-immo/betna/internal/broker"
	"github.com/betna-immo/betna/internal/config"
	"github.com/betna-immo/betna/internal/email"
	"github.com/betna-immo/betna/internal/export"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/imagehost"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/logging"
	"github.com/betna-immo/betna/internal/scheduler"
	"github.com/betna-immo/betna/internal/visit"
	"github.com/betna-immo/betna/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP JSON API with background jobs. Configuration is read from BETNA_* environment variables and .env.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides BETNA_PORT)")

	return cmd
}

func runServe(cfg config.Config) error {
	logging.Setup(cfg.DevMode, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	b, err := newBroker(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if c, ok := b.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing broker", "error", err)
			}
		}()
	}

	sender := email.NewSMTPSender(email.SMTPConfig(cfg.SMTP), cfg.DevMode)
	accounts := account.NewStore(database, cfg.Auth.AdminEmail)
	notifier := email.NewNotifier(sender, accounts, cfg.BaseURL)
	listings := listing.NewService(listing.NewRepository(database), b,
		listing.WithPolicy(listing.Policy(cfg.Policy)),
		listing.WithSubscriptionChecker(accounts),
		listing.WithNotifier(notifier),
	)

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("configuring tokens: %w", err)
	}
	sessions := auth.NewSessionStore(database)
	verifications := auth.NewVerificationStore(database)
	identity := auth.NewIdentity(b)
	stopIdentity := identity.OnChange(func(kind, accountID string) {
		slog.Debug("identity changed", "kind", kind, "account", accountID)
	})
	defer stopIdentity()

	var model assistant.Model
	if g, err := assistant.NewGemini(ctx, assistant.GeminiConfig{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model}); err == nil {
		model = g
	} else if !errors.Is(err, assistant.ErrNoModel) {
		return err
	} else {
		slog.Warn("assistant running without a language model")
	}

	images, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(web.Deps{
		BaseURL:   cfg.BaseURL,
		Accounts:  accounts,
		Listings:  listings,
		Visits:    visit.NewService(visit.NewRepository(database), listings, notifier),
		Favorites: favorite.NewRepository(database, listings),
		Assistant: assistant.NewService(assistant.NewStore(database), model, listings, cfg.Gemini.History),
		Billing: billing.NewService(billing.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
			APIURL:        cfg.Stripe.APIURL,
			Plans:         billing.PlansFromPrices(cfg.Stripe.Prices),
		}, accounts),
		Images:        images,
		Tokens:        tokens,
		Sessions:      sessions,
		Verifications: verifications,
		Passkeys:      auth.NewPasskeyStore(database),
		Mailer:        auth.NewMailer(sender, cfg.BaseURL, cfg.DevMode),
		Identity:      identity,
	})
	if err != nil {
		return err
	}

	sched := scheduler.New()
	type job struct {
		name, spec string
		fn         scheduler.JobFunc
	}
	jobs := []job{
		{"cleanup", cfg.Scheduler.CleanupCron, scheduler.Cleanup(map[string]scheduler.Cleaner{
			"sessions":            sessions,
			"verification tokens": verifications,
		})},
		{"expire-subscriptions", cfg.Scheduler.SubscriptionCron, scheduler.ExpireSubscriptions(accounts, time.Now)},
	}
	if cfg.Scheduler.ExportCron != "" {
		w, err := newCatalogueWriter(ctx, cfg)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{"export-catalogue", cfg.Scheduler.ExportCron, scheduler.ExportCatalogue(listings, w, time.Now)})
	}
	for _, j := range jobs {
		if err := sched.Add(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	fmt.Printf("Starting Betna Immo API on %s (port %d)\n", cfg.BaseURL, cfg.Port)
	return srv.ListenAndServe(ctx, cfg.Port)
}

// newBroker returns a Redis broker when configured, else an in-process one.
func newBroker(ctx context.Context, cfg config.Redis) (broker.Broker, error) {
	if cfg.URL == "" {
		return broker.NewLocal(), nil
	}
	r, err := broker.NewRedis(cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	slog.Info("change notifications via redis")
	return r, nil
}

// newUploader picks S3 when a bucket is set, then ImgBB. With neither the
// upload route answers 503.
func newUploader(ctx context.Context, cfg config.Config) (imagehost.Uploader, error) {
	s3cfg := imagehost.S3Config(cfg.S3)
	if s3cfg.IsConfigured() {
		u, err := imagehost.NewS3(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("configuring s3 uploads: %w", err)
		}
		return u, nil
	}
	if cfg.ImgBB.APIKey != "" {
		u, err := imagehost.NewImgBB(cfg.ImgBB.APIKey)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	slog.Warn("image uploads disabled: no S3 bucket or ImgBB key")
	return nil, nil
}

func newCatalogueWriter(ctx context.Context, cfg config.Config) (*export.Writer, error) {
	creds, err := export.Credentials(cfg.Sheets.CredentialsPath)
	if err != nil {
		return nil, err
	}
	return export.NewWriter(ctx, cfg.Sheets.SpreadsheetID, cfg.BaseURL, creds)
}
