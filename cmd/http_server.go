package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/auth"
	authPostgres "github.com/frahmantamala/paylink/internal/auth/postgres"
	"github.com/frahmantamala/paylink/internal/cache"
	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/internal/moderation"
	"github.com/frahmantamala/paylink/internal/payment"
	paymentPostgres "github.com/frahmantamala/paylink/internal/payment/postgres"
	"github.com/frahmantamala/paylink/internal/paymentlink"
	linkPostgres "github.com/frahmantamala/paylink/internal/paymentlink/postgres"
	"github.com/frahmantamala/paylink/internal/storage"
	"github.com/frahmantamala/paylink/internal/transport/openapi"
	"github.com/frahmantamala/paylink/internal/transport/rest"
	"github.com/frahmantamala/paylink/internal/user"
	userPostgres "github.com/frahmantamala/paylink/internal/user/postgres"
	"github.com/frahmantamala/paylink/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Redis     *redis.Client
	Bus       *events.EventBus
	KafkaSink *events.KafkaSink
	Janitor   *storage.Janitor
	Router    *chi.Mux
	Logger    *slog.Logger
}

func (d *Dependencies) Close() {
	if d.Janitor != nil {
		d.Janitor.Shutdown()
	}
	if d.KafkaSink != nil {
		if err := d.KafkaSink.Close(); err != nil {
			d.Logger.Error("kafka producer close error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer() error {
	ctx := context.Background()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	if err := setupRoutes(ctx, deps); err != nil {
		return err
	}

	cfg := deps.Config.Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", server.Addr, "base_url", cfg.Origin())
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.Bus.Wait(shutdownCtx); err != nil {
			deps.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Env)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gdb,
		Router: chi.NewRouter(),
		Logger: lg,
	}

	if config.Cache.Enabled {
		deps.Redis = cache.NewRedisClient(config.Cache)
	}

	deps.Bus, deps.KafkaSink, err = newEventBus(config.Events.Kafka, lg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

// newEventBus wires the log sink and, when enabled, the Kafka relay.
func newEventBus(cfg internal.KafkaConfig, lg *slog.Logger) (*events.EventBus, *events.KafkaSink, error) {
	bus := events.NewEventBus(lg)
	bus.Subscribe(events.AllEvents, events.LogSink(lg))

	if !cfg.Enabled {
		return bus, nil, nil
	}
	sink, err := events.NewKafkaSink(cfg, lg)
	if err != nil {
		return nil, nil, err
	}
	bus.Subscribe(events.AllEvents, sink.Handle)
	return bus, sink, nil
}

func newObjectStore(cfg *internal.Config, lg *slog.Logger) (storage.Store, string) {
	if cfg.Storage.Driver == "supabase" {
		return storage.NewSupabaseStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseServiceKey, cfg.Storage.Timeout, lg), ""
	}
	local := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Server.Origin()+"/assets", lg)
	return local, local.Dir()
}

func setupRoutes(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	store, assetsDir := newObjectStore(cfg, lg)
	assets := storage.NewAssets(store, cfg.Storage.QRISBucket, cfg.Storage.ProofBucket, storage.Limits{
		MaxBytes:     cfg.Storage.MaxUploadBytes,
		MaxDimension: cfg.Storage.MaxImageDimension,
	}, lg)
	deps.Janitor = storage.NewJanitor(store, storage.JanitorConfig{Timeout: cfg.Storage.Timeout}, lg)
	assets.WithJanitor(deps.Janitor)

	var linkCache paymentlink.Cache = cache.Noop{}
	var redisPing rest.Pinger
	if deps.Redis != nil {
		redisCache := cache.NewRedisCache(deps.Redis, cfg.Cache.LinkTTL)
		linkCache = redisCache
		redisPing = rest.PingFunc(redisCache.Ping)
	}

	tokens := auth.NewJWTTokenGenerator(cfg.Security)
	authService := auth.NewService(authPostgres.NewRepository(deps.DB), tokens, cfg.Security, lg)
	userService := user.NewService(userPostgres.NewPostgresRepo(deps.DB), lg)

	paymentRepo := paymentPostgres.NewPaymentRepository(deps.Gorm)
	linkService := paymentlink.NewService(linkPostgres.NewPaymentLinkRepository(deps.Gorm), assets, linkCache, deps.Bus, cfg.Server.Origin(), lg)
	paymentService := payment.NewService(paymentRepo, linkService, assets, deps.Bus, lg)
	moderationService := moderation.NewService(paymentRepo, assets, deps.Bus, lg)

	var doc *openapi.Document
	if cfg.Server.OpenAPIPath != "" {
		var err error
		doc, err = openapi.Load(ctx, cfg.Server.OpenAPIPath)
		if err != nil {
			return err
		}
	}

	rest.RegisterAllRoutes(deps.Router, rest.Routes{
		Health: rest.NewHealthHandler(map[string]rest.Pinger{
			"postgres": deps.DB,
			"redis":    redisPing,
		}),
		Sessions:       authService,
		Guard:          auth.NewGuard(lg),
		Auth:           auth.NewHandler(authService),
		User:           user.NewHandler(userService),
		Links:          paymentlink.NewHandler(linkService, cfg.Storage.MaxUploadBytes),
		Payments:       payment.NewHandler(paymentService, cfg.Storage.MaxUploadBytes),
		Moderation:     moderation.NewHandler(moderationService),
		OpenAPI:        doc,
		AssetsDir:      assetsDir,
		AllowedOrigins: cfg.Server.Origins(),
		Logger:         lg,
	})
	return nil
}
