package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CrackedOnTiti/AREA/internal/config"
	"github.com/CrackedOnTiti/AREA/internal/dispatch"
	"github.com/CrackedOnTiti/AREA/internal/mailer"
	"github.com/CrackedOnTiti/AREA/internal/providers"
	"github.com/CrackedOnTiti/AREA/internal/scheduler"
	"github.com/CrackedOnTiti/AREA/internal/seed"
	"github.com/CrackedOnTiti/AREA/internal/store"
)

func configureLogger(logLevel string, useDev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if useDev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	configPath := flag.String("config", "area.toml", "path to config file")
	once := flag.Bool("once", false, "run a single tick then exit")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	logger.Info("area starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = configureLogger(cfg.LogLevel, *dev)
	slog.SetDefault(logger)

	dbPath := config.ExpandHome(cfg.DatabaseURL)
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Error("failed to open store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := seed.Run(st, logger); err != nil {
		logger.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	tz, err := cfg.SchedulerLocation()
	if err != nil {
		logger.Error("invalid scheduler timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Scheduler.HTTPTimeout.Duration}
	dispatcher := dispatch.New(dispatch.Deps{
		Store:     st,
		Mail:      mailer.New(cfg.SMTP),
		Gmail:     providers.NewGmail(httpClient),
		Drive:     providers.NewDrive(httpClient),
		Facebook:  providers.NewFacebook(httpClient),
		GitHub:    providers.NewGitHub(httpClient),
		Spotify:   providers.NewSpotify(httpClient),
		Refresher: providers.NewRefresher(cfg.OAuth),
		Timezone:  tz,
		Lookback:  cfg.Scheduler.LookbackWindow.Duration,
	})

	sched := scheduler.New(st, dispatcher, cfg.Scheduler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		logger.Info("running single tick (--once mode)")
		sched.RunTick(ctx)
		logger.Info("single tick complete, exiting")
		return
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("area running",
		"check_interval", cfg.Scheduler.CheckInterval.Duration.String(),
		"timezone", cfg.Scheduler.Timezone,
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"leading", sched.Leading(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	sched.Stop()
	logger.Info("area stopped")
}
