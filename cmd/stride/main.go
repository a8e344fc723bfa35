package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/strideapp/stride/internal/assist"
	"github.com/strideapp/stride/internal/auth"
	"github.com/strideapp/stride/internal/config"
	"github.com/strideapp/stride/internal/db"
	"github.com/strideapp/stride/internal/providers"
	"github.com/strideapp/stride/internal/repository"
	"github.com/strideapp/stride/internal/scheduler"
	"github.com/strideapp/stride/internal/server"
	"github.com/strideapp/stride/internal/summary"
)

var version = "0.1.0"

func main() {
	// A missing .env is fine; config falls back to the real
	// environment.
	_ = godotenv.Load()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		runServe()
	case "migrate":
		runMigrate(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("stride v%s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	path := config.DefaultConfigPath()
	if env := os.Getenv("STRIDE_CONFIG"); env != "" {
		path = env
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runServe() {
	cfg := loadConfig()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close(conn)

	if err := db.Migrate(conn.DB); err != nil {
		logger.Error("running migrations", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(conn)
	goals := repository.NewGoalRepository(conn)
	entries := repository.NewEntryRepository(conn)
	summaries := repository.NewSummaryRepository(conn)

	gateway := providers.FromConfig(cfg, logger)
	generator := summary.NewGenerator(entries, goals, summaries, users, gateway, logger)
	assistant := assist.NewService(users, gateway, logger)
	authService := auth.NewService(users, cfg.Auth.JWTSecret, config.Duration(cfg.Auth.TokenExpiry, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(
			conn, users, generator,
			config.Duration(cfg.Scheduler.TickInterval, 0),
			cfg.Scheduler.MaxConcurrent,
			logger,
		)
		sched.Start(ctx)
		logger.Info("scheduler started",
			"tick", cfg.Scheduler.TickInterval,
			"max_concurrent", cfg.Scheduler.MaxConcurrent)
	}

	srv := server.New(
		cfg.Server.ListenAddr,
		authService, users, goals, entries, summaries,
		generator, assistant, logger,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server", "error", err)
		os.Exit(1)
	}

	if sched != nil {
		sched.Wait()
	}
}

func runMigrate(args []string) {
	cfg := loadConfig()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close(conn)

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		err = db.Migrate(conn.DB)
	case "down":
		err = db.MigrateDown(conn.DB)
	case "status":
		err = db.MigrationStatus(conn.DB)
	default:
		fmt.Fprintf(os.Stderr, "unknown migrate direction %q (use up, down, or status)\n", direction)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("stride v%s — personal goal tracking with AI summaries\n\n", version)
	fmt.Println("Usage:")
	fmt.Println("  stride serve             Start the API server and scheduler")
	fmt.Println("  stride migrate [up|down|status]")
	fmt.Println("                           Manage database migrations")
	fmt.Println("  stride version           Show version")
	fmt.Println("  stride help              Show this help")
	fmt.Println("")
	fmt.Println("Config is read from ~/.stride/config.yaml or $STRIDE_CONFIG.")
}
