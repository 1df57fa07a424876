package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/windevexpert/windevexpert/internal/adapter/cachedstore"
	"github.com/windevexpert/windevexpert/internal/adapter/email"
	wdehttp "github.com/windevexpert/windevexpert/internal/adapter/http"
	wdenats "github.com/windevexpert/windevexpert/internal/adapter/nats"
	"github.com/windevexpert/windevexpert/internal/adapter/natskv"
	wdeotel "github.com/windevexpert/windevexpert/internal/adapter/otel"
	"github.com/windevexpert/windevexpert/internal/adapter/ristretto"
	"github.com/windevexpert/windevexpert/internal/adapter/storage"
	"github.com/windevexpert/windevexpert/internal/adapter/tiered"
	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/logger"
	"github.com/windevexpert/windevexpert/internal/middleware"
	"github.com/windevexpert/windevexpert/internal/port/cache"
	"github.com/windevexpert/windevexpert/internal/port/database"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
	"github.com/windevexpert/windevexpert/internal/port/notifier"
	"github.com/windevexpert/windevexpert/internal/resilience"
	"github.com/windevexpert/windevexpert/internal/secrets"
	"github.com/windevexpert/windevexpert/internal/service"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server exposing /health, the installer (/api/install) and
the back-office API (/api/nimda). The data path is chosen once at startup:
PostgreSQL through pgx when DATABASE_URL is reachable, database/sql otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, closeLog := logger.NewAsync(cfg.Logging)
			defer closeLog.Close()
			slog.SetDefault(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.Flag("env-file").Value.String())
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, envFile string) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"env", cfg.Server.Env,
		"log_level", cfg.Logging.Level,
		"install_dir", cfg.Installer.Dir,
	)

	// --- Telemetry ---

	shutdownOtel, err := wdeotel.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()
	metrics, err := wdeotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Storage ---

	opened, err := storage.Open(ctx, cfg.Database, cfg.Installer.DataPath(), slog.Default())
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer opened.Store.Close()
	if opened.FallbackReason != "" {
		metrics.RecordFallback(ctx, opened.FallbackReason)
	}

	// --- Events ---

	var queue messagequeue.Queue = wdenats.Disabled{}
	var natsQueue *wdenats.Queue
	if cfg.NATS.URL != "" {
		q, err := wdenats.Connect(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Drain() }()
		queue, natsQueue = q, q
	}

	// --- Catalog cache ---

	var store database.Store = opened.Store
	var responses cache.Cache
	if cfg.Cache.MaxSizeMB > 0 {
		local, err := ristretto.New(cfg.Cache.MaxSizeMB)
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer local.Close()

		var c cache.Cache = local
		if cfg.Cache.Shared && natsQueue != nil {
			kv, err := natsQueue.KeyValue(ctx, cfg.Cache.TTL)
			if err != nil {
				slog.Warn("shared cache unavailable, using in-process cache only", "error", err)
			} else {
				c = tiered.New(local, natskv.New(kv), cfg.Cache.LocalTTL)
			}
		}
		store = cachedstore.New(opened.Store, c, cfg.Cache.TTL)
		responses = c
	}

	// --- Mail & notifications ---

	renderer, err := email.NewRenderer(cfg.Site.Name, cfg.Site.URL)
	if err != nil {
		return fmt.Errorf("email templates: %w", err)
	}
	mailer := email.NewMailer(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	}, resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	notifications := service.NewNotificationService(buildNotifiers(cfg), nil)
	notifications.SetMetrics(metrics)

	// --- Services ---

	adminSvc := service.NewAdminService(store, email.NewCustomerMailer(mailer, renderer), cfg.Admin.BcryptCost)
	adminSvc.SetQueue(queue)
	adminSvc.SetNotifier(notifications)

	installerSvc := service.NewInstallerService(
		cfg.Installer,
		cfg.Admin.BcryptCost,
		storage.Provisioner{DataDir: cfg.Installer.DataPath()},
		email.NewInstallProbe(renderer, cfg.SMTP.Timeout),
	)
	installerSvc.SetQueue(queue)
	installerSvc.SetNotifier(notifications)
	installerSvc.SetMetrics(metrics)

	// --- Admin token (rotated on SIGHUP) ---

	vault, err := secrets.NewVault(secrets.DotenvLoader(envFile, adminTokenKey))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	go reloadOnHangup(ctx, vault)
	vaultToken := vault.Source(adminTokenKey)
	adminToken := func() string {
		if t := vaultToken(); t != "" {
			return t
		}
		return cfg.Admin.Token
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	limiter.StartCleanup(ctx, time.Minute, 10*time.Minute)

	handlers := &wdehttp.Handlers{
		Admin:     adminSvc,
		Installer: installerSvc,
		Events:    queue,
		Env:       cfg.Server.Env,
	}

	r := chi.NewRouter()
	r.Use(wdeotel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(wdehttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(wdehttp.CORS(cfg.Server.CORSOrigin))
	r.Use(wdehttp.SecurityHeaders)
	r.Use(chimw.Timeout(5 * time.Minute))

	wdehttp.MountRoutes(r, handlers, wdehttp.RouteOptions{
		AdminToken:     adminToken,
		InstallLimiter: limiter,
		Idempotency:    responses,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Install steps run dependency commands and migrations.
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "backend", store.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

const adminTokenKey = "WDE_ADMIN_TOKEN"

// reloadOnHangup re-reads the dotenv secrets on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secrets reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}
}

type notifierConfig struct {
	name string
	cfg  map[string]string
}

// buildNotifiers creates the operator notifiers enabled by cfg through the
// notifier registry.
func buildNotifiers(cfg *config.Config) []notifier.Notifier {
	var configs []notifierConfig
	if cfg.SMTP.Host != "" && len(cfg.Admin.NotifyEmails) > 0 {
		configs = append(configs, notifierConfig{"email", map[string]string{
			"host":       cfg.SMTP.Host,
			"port":       strconv.Itoa(cfg.SMTP.Port),
			"user":       cfg.SMTP.User,
			"password":   cfg.SMTP.Password,
			"from":       cfg.SMTP.From,
			"site_name":  cfg.Site.Name,
			"site_url":   cfg.Site.URL,
			"recipients": strings.Join(cfg.Admin.NotifyEmails, ","),
		}})
	}
	if cfg.Slack.WebhookURL != "" {
		configs = append(configs, notifierConfig{"slack", map[string]string{"webhook_url": cfg.Slack.WebhookURL}})
	}
	if cfg.Discord.WebhookURL != "" {
		configs = append(configs, notifierConfig{"discord", map[string]string{"webhook_url": cfg.Discord.WebhookURL}})
	}

	var out []notifier.Notifier
	for _, c := range configs {
		n, err := notifier.New(c.name, c.cfg)
		if err != nil {
			slog.Warn("notifier disabled", "notifier", c.name, "error", err)
			continue
		}
		out = append(out, n)
	}
	slog.Info("notifiers configured", "count", len(out), "available", notifier.Available())
	return out
}
