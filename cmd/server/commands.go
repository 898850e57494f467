package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/pencraft/internal/bootstrap"
	"anoa.com/pencraft/internal/config"
	searchService "anoa.com/pencraft/internal/modules/search/service"
	viewService "anoa.com/pencraft/internal/modules/view/service"
	"anoa.com/pencraft/internal/scheduler"
	"anoa.com/pencraft/internal/server"
	"anoa.com/pencraft/pkg/database"
	"anoa.com/pencraft/pkg/events"
	"anoa.com/pencraft/pkg/logger"
	"anoa.com/pencraft/pkg/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "pencraft",
		Short:         "PenCraft blogging and community backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset (idempotent)",
		RunE:  runSeed,
	}

	runJobCmd = &cobra.Command{
		Use:   "run-job <name>",
		Short: "Run one background job now, e.g. " + viewService.SyncJobName,
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, runJobCmd)

	cobra.OnFinalize(func() {
		if database.DB != nil {
			if sqlDB, err := database.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	})
}

func openSQL() (*gorm.DB, error) {
	if cfg.UsesMemoryStore() {
		return nil, fmt.Errorf("DB_DRIVER=memory has no schema to manage")
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func openRepositories() (*bootstrap.Repositories, error) {
	if cfg.UsesMemoryStore() {
		slog.Warn("using in-memory storage, data is lost on restart")
		return bootstrap.NewMemoryRepositories(), nil
	}
	db, err := openSQL()
	if err != nil {
		return nil, err
	}
	return bootstrap.NewGormRepositories(db), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if _, err := openSQL(); err != nil {
		return err
	}
	slog.Info("migration completed")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openSQL()
	if err != nil {
		return err
	}
	return bootstrap.Seed(cmd.Context(), bootstrap.NewGormRepositories(db))
}

// backgroundJobs registers the jobs srv needs. Nothing is scheduled until
// Start is called.
func backgroundJobs(ctx context.Context, srv *server.Server) (*scheduler.Scheduler, error) {
	jobs := scheduler.New(ctx)
	if srv.ViewSync != nil {
		if err := jobs.Register(srv.ViewSync); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repos, err := openRepositories()
	if err != nil {
		return err
	}
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	jobs, err := backgroundJobs(ctx, server.New(cfg, server.Deps{Repos: repos, Redis: redisClient}))
	if err != nil {
		return err
	}

	if err := jobs.RunByName(ctx, args[0]); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			available := "none"
			if names := jobs.Jobs(); len(names) > 0 {
				available = strings.Join(names, ", ")
			}
			return fmt.Errorf("%w (available: %s)", err, available)
		}
		return err
	}
	slog.Info("job finished", "job", args[0])
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories()
	if err != nil {
		return err
	}
	if cfg.SeedOnStart {
		if err := bootstrap.Seed(ctx, repos); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		slog.Info("REDIS_URL not set, using in-process sessions, feed and view counts")
	}

	publisher, err := events.Open(events.Config{
		Broker:  cfg.EventBroker,
		NATSURL: cfg.NATSURL,
		Kafka:   events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic},
	})
	if err != nil {
		return err
	}
	defer publisher.Close()

	deps := server.Deps{
		Repos:     repos,
		Redis:     redisClient,
		Publisher: publisher,
	}

	if cfg.Cloudinary.Enabled() {
		images, err := storage.NewCloudinaryStorage(cfg.Cloudinary)
		if err != nil {
			return err
		}
		deps.Images = images
	}

	if cfg.MeiliSearchHost != "" {
		deps.Meili = searchService.NewMeiliIndexer(cfg.MeiliSearchHost, cfg.MeiliMasterKey)
	}

	srv := server.New(cfg, deps)

	jobs, err := backgroundJobs(ctx, srv)
	if err != nil {
		return err
	}
	jobs.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", httpServer.Addr, "env", cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		jobs.Stop(shutdownCtx)
		if srv.ViewSync != nil {
			// flush what the last tick missed
			if err := jobs.RunByName(shutdownCtx, viewService.SyncJobName); err != nil {
				slog.Error("final view sync failed", "error", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
