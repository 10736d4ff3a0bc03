package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/config"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/ledger"
	applog "spendtrack/internal/log"
)

var cli struct {
	Port      string `help:"HTTP listen port (overrides PORT)."`
	LogLevel  string `help:"Log level: debug, info, warn, error (overrides LOG_LEVEL)."`
	LogFormat string `help:"Log format: text or json (overrides LOG_FORMAT)."`
	EnvFile   string `help:"Path to a .env file to load." default:".env" type:"path"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("spendtrack"),
		kong.Description("Expense-logging API with keyword categorization, budgets and spend predictions."),
	)

	// Optional .env bootstrap; a missing file is fine.
	_ = godotenv.Load(cli.EnvFile)

	cfg := config.Load()
	if cli.Port != "" {
		cfg.Port = cli.Port
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}
	kctx.FatalIfErrorf(cfg.Validate())

	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	led := ledger.New()
	srv := apphttp.NewServer(":"+cfg.Port, led, logger, cfg.RateLimitPerMinute)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendtrack server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
