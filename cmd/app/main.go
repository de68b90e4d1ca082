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

	"warehouse/cmd"
	"warehouse/internal/jobs"
	"warehouse/internal/pkg/logging"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "warehouse",
		Short:        "Warehouse order state machine and fulfillment task queue",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCommand(&envFile),
		newMigrateCommand(&envFile),
		newSweepCommand(&envFile),
	)
	return root
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			root, err := cmd.NewCompositionRoot(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeRoot(root, logger)

			if err = root.Migrate(ctx); err != nil {
				return err
			}
			return serve(ctx, cfg, root, logger)
		},
	}
}

func serve(ctx context.Context, cfg cmd.Config, root *cmd.CompositionRoot, logger *slog.Logger) error {
	e, err := root.CreateRouter()
	if err != nil {
		return err
	}
	e.Logger.SetLevel(echoLogLevel(cfg.LogLevel))

	jobManager := root.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
		logger.Info("http server listening", "addr", addr)
		if startErr := e.Start(addr); !errors.Is(startErr, http.ErrServerClosed) {
			return startErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		jobManager.StopAll()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			if cfg.StorageBackend != cmd.BackendPostgres {
				return fmt.Errorf("migrate needs STORAGE_BACKEND=%s, got %s", cmd.BackendPostgres, cfg.StorageBackend)
			}
			root, err := cmd.NewCompositionRoot(c.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeRoot(root, logger)

			if err = root.Migrate(c.Context()); err != nil {
				return err
			}
			logger.Info("schema migrated")
			return nil
		},
	}
}

func newSweepCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Return tasks with expired leases to their queues once",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*envFile)
			if err != nil {
				return err
			}
			root, err := cmd.NewCompositionRoot(c.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeRoot(root, logger)

			job := jobs.NewLeaseReclaimJob(root.CreateReclaimExpiredTasksCommandHandler(), cfg.ReclaimSchedule, logger)
			n, err := job.RunOnce(c.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.OutOrStdout(), "reclaimed %d task(s)\n", n)
			return err
		},
	}
}

func setup(envFile string) (cmd.Config, *slog.Logger, error) {
	cfg, err := cmd.LoadConfig(envFile)
	if err != nil {
		return cmd.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging(), os.Stderr)
	if err != nil {
		return cmd.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func closeRoot(root *cmd.CompositionRoot, logger *slog.Logger) {
	if err := root.Close(); err != nil {
		logger.Error("failed to close connections", "error", err)
	}
}

// echoLogLevel maps the service log level onto echo's gommon logger.
func echoLogLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
