package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emrflow/emrflow/internal/config"
	"github.com/emrflow/emrflow/internal/domain/encounter"
	"github.com/emrflow/emrflow/internal/domain/patient"
	"github.com/emrflow/emrflow/internal/domain/program"
	"github.com/emrflow/emrflow/internal/importer"
	"github.com/emrflow/emrflow/internal/matching"
	"github.com/emrflow/emrflow/internal/platform/auth"
	"github.com/emrflow/emrflow/internal/platform/db"
	"github.com/emrflow/emrflow/internal/platform/middleware"
	"github.com/emrflow/emrflow/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emrflow-server",
		Short: "Clinical record import engine",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// newRunner assembles the import pipeline: unit of work, candidate lookup,
// matching strategy, transaction builder, retrospective gateway and program
// enrollment, all sharing one pool. The strategy is resolved once here and
// reused for every row the runner processes.
func newRunner(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger, metrics *telemetry.Metrics) (*importer.Runner, error) {
	strategy, err := matching.Resolve(cfg.MatchStrategy, cfg.MatchStrategyDir)
	if err != nil {
		return nil, err
	}

	concepts := encounter.NewConceptCache(encounter.NewConceptRepoPG(pool))
	builder := encounter.NewBuilder(concepts, cfg.DefaultVisitType)
	gateway := encounter.NewRetrospectiveService(encounter.NewVisitRepoPG(pool), encounter.NewEncounterRepoPG(pool))
	enroller := program.NewEnrollmentService(program.NewRegistryPG(pool))

	persister := importer.NewPersister(
		importer.NewPgUnitOfWork(pool),
		patient.NewPatientRepoPG(pool),
		strategy,
		builder,
		gateway,
		enroller,
		logger,
	)
	if metrics != nil {
		persister.SetMetrics(metrics)
	}

	return importer.NewRunner(persister, cfg.ImportWorkers, logger, metrics), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the import API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	metrics := telemetry.NewMetrics()
	runner, err := newRunner(cfg, pool, logger, metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build import pipeline")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(cfg.AuthSecret))
	}
	importer.NewHandler(runner).RegisterRoutes(apiV1)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	return nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run an import batch from a JSON rows file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read rows file: %w", err)
			}
			var batch struct {
				Rows []*importer.Row `json:"rows"`
			}
			if err := json.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("parse rows file: %w", err)
			}
			if len(batch.Rows) == 0 {
				return fmt.Errorf("no rows in %s", file)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner, err := newRunner(cfg, pool, logger, nil)
			if err != nil {
				return err
			}

			report := runner.Run(ctx, batch.Rows)

			fmt.Printf("Processed %d row(s): %d succeeded, %d failed.\n",
				report.Total, report.Succeeded, report.Failed)
			for _, res := range report.Results {
				if !res.Succeeded() {
					fmt.Printf("  FAILED %q: %s\n", res.Row.PatientIdentifier, res.Message())
				}
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d row(s) failed", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().String("file", "", "Path to a JSON file with a rows array")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %s\n", "VERSION", "NAME", "STATUS")
			fmt.Println("---------- ---------------------------------------- ----------")
			for _, s := range statuses {
				status := "pending"
				if s.Applied {
					status = "applied"
				}
				fmt.Printf("%-10d %-40s %s\n", s.Version, s.Name, status)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthSecret == "" {
				return fmt.Errorf("AUTH_SECRET is not configured")
			}

			token, err := auth.GenerateToken(cfg.AuthSecret, subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("subject", "operator", "Token subject")
	cmd.Flags().String("role", "operator", "Token role")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
