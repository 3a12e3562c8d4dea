package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/CrowderSoup/taskquest/database"
	"github.com/CrowderSoup/taskquest/gamification"
	"github.com/CrowderSoup/taskquest/handlers"
	"github.com/CrowderSoup/taskquest/services"
)

func main() {
	cfg, err := LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().
			Err(err).
			Msg("server stopped")
	}
}

func newLogger(cfg *Config) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"

	level := zerolog.InfoLevel
	w := io.Writer(os.Stdout)
	switch cfg.Env {
	case EnvLocal:
		level = zerolog.DebugLevel
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	case EnvDev:
		level = zerolog.DebugLevel
	}
	if cfg.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(w).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

func openStore(ctx context.Context, cfg StoreConfig) (database.Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
		}
		return database.OpenSQLite(cfg.SQLitePath)
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return database.NewRedisStore(client, cfg.RedisPrefix), nil
	case DriverPostgres:
		return database.OpenPostgres(ctx, cfg.PostgresURL)
	}
	return database.OpenFileStore(cfg.DataDir)
}

func run(cfg *Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the document store
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().
		Str("driver", cfg.Store.Driver).
		Msg("opened document store")

	docs := database.NewDocuments(store)
	if err := docs.Init(ctx); err != nil {
		return fmt.Errorf("failed to init documents: %w", err)
	}

	// Initialize services
	now := services.Clock(time.Now)
	ids := services.NewIDGenerator(now)
	hub := services.NewHub(logger)

	app := &handlers.App{
		Auth:      services.NewAuthService(docs, ids, logger),
		Groups:    services.NewGroupService(docs, ids, now, hub, logger),
		Tasks:     services.NewTaskService(docs, ids, now, hub, logger),
		FlatTasks: services.NewFlatTaskService(docs, ids, now, logger),
		Rewards:   services.NewRewardService(docs, gamification.NewEngine(nil), logger),
		Seeder:    services.NewSeeder(docs, ids, now, logger),
		Tickets:   services.NewTicketIssuer(cfg.Live.TicketSecret, cfg.Live.TicketTTL, now),
		Hub:       hub,
		Logger:    logger,
	}

	if cfg.SeedOnStart {
		if _, err := app.Seeder.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
	}

	router := handlers.NewRouter(app, handlers.RouterOptions{
		RateLimit: rate.Limit(cfg.RateLimit.RPS),
		Burst:     cfg.RateLimit.Burst,
	})

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to listen and serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("shut down http server")
	return nil
}
