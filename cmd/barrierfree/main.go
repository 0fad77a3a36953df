package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"barrierfree.app/internal/app"
	"barrierfree.app/internal/config"
	"barrierfree.app/internal/facility"
	"barrierfree.app/internal/report"
	"barrierfree.app/internal/station"
	"barrierfree.app/internal/upstream"
	"barrierfree.app/internal/utils"
)

const version = "1.0.0"

func main() {
	var (
		port       = flag.Int("port", 0, "API server port (overrides config and PORT)")
		env        = flag.String("env", "", "Environment (development|staging|production)")
		configFile = flag.String("config-file", "", "Path to a YAML configuration file")
		envFile    = flag.String("env-file", ".env", "Path to a dotenv file; missing is fine")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to read env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configFile, os.Getenv)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *env != "" {
		cfg.Env = *env
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := report.SetupSentry(cfg.SentryDSN, cfg.Env, version); err != nil {
		logger.Error("Failed to initialise Sentry", "error", err)
	}
	defer report.FlushSentry()
	report.ConfigureScope(cfg.Env, version)

	if !cfg.HasAPIKey() {
		logger.Warn("SEOUL_API_KEY is not set; facility and route requests will fail until it is configured")
	}

	var dir *station.Directory
	if cfg.StationDirectory != "" {
		dir, err = station.LoadDirectory(cfg.StationDirectory)
		if err != nil {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:  utils.MakeMap("station_directory", cfg.StationDirectory),
				Level: sentry.LevelError,
			})
			logger.Error("Failed to load station directory", "path", cfg.StationDirectory, "error", err)
		} else {
			logger.Info("Loaded station directory", "stations", dir.Len())
		}
	}

	local := facility.NewLocalStore()
	if path := cfg.LocalRowsPath(); path != "" {
		if err := local.Load(path); err != nil {
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:  utils.MakeMap("local_rows", path),
				Level: sentry.LevelError,
			})
			logger.Error("Failed to load local rows", "path", path, "error", err)
		}
	}

	client := upstream.NewPooledClient(cfg.Timeout())
	application := app.New(cfg, logger, client, dir, local, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *configFile != "" && cfg.ReloadInterval > 0 {
		go application.ConfigService.RefreshConfig(ctx, *configFile, cfg.ReloadInterval, application.ReloadLocalRows)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		// composed responses fan out concurrently, so the slowest single feed bounds them
		WriteTimeout: cfg.WorstCaseFetch() + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "config", cfg.String(), "version", version)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			report.ReportError(err, sentry.LevelFatal)
			report.FlushSentry()
			logger.Error(err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
