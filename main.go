package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/config"
	"github.com/ekaya-inc/ekaya-ingest/pkg/database"
	"github.com/ekaya-inc/ekaya-ingest/pkg/handlers"
	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	mcpserver "github.com/ekaya-inc/ekaya-ingest/pkg/mcp"
	"github.com/ekaya-inc/ekaya-ingest/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-ingest/pkg/metrics"
	"github.com/ekaya-inc/ekaya-ingest/pkg/middleware"
	"github.com/ekaya-inc/ekaya-ingest/pkg/retry"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ekaya-ingest",
	Short:         "ekaya-ingest - multi-source knowledge base ingestion",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the ingestion API and MCP endpoint",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFrom(configPath, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	db, err := database.ConnectWithRetry(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, retry.StartupConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := connect(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return database.RunMigrations(db, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("redis_enabled", cfg.Redis.Host != ""),
		zap.Bool("processing_enabled", cfg.Processing.BaseURL != ""),
		zap.Bool("parallel_composite", cfg.Ingestion.ParallelComposite))

	db, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, source cache disabled", zap.String("error", logging.SanitizeError(err)))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metrics.Init()

	mux := http.NewServeMux()
	ingestion, mcpTools := buildIngestion(cfg, db, redisClient, logger)
	ingestion.RegisterRoutes(mux)
	readiness := []handlers.ReadinessCheck{{Name: "postgres", Check: db.Ping}}
	if redisClient != nil {
		readiness = append(readiness, handlers.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	handlers.NewHealthHandler(cfg, logger, readiness...).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	mcpSrv := mcpserver.NewServer(cfg.Version, logger)
	tools.RegisterIngestionTools(mcpSrv.MCP(), mcpTools)
	tools.RegisterHealthTool(mcpSrv.MCP(), cfg.Version, nil)
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger.Named("mcp-requests"))(mcpSrv.Handler()))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.Chain(mux, middleware.Recoverer(logger), middleware.RequestLogger(logger.Named("http"))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-ingest", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
