// The worker keeps the API process's caches warm. On its cron schedule it
// asks the API to drop every category cache, then immediately re-queries
// the configured locations so the expensive provider fan-out happens here,
// on the clock, instead of on the first user request after expiry. The
// caches live inside the API process, so warming goes through the API's
// own HTTP surface rather than a second in-process copy of the aggregators.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"localpulse/pkg/config"
)

func main() {
	logger := initLogger()

	cfg := loadWorkerConfig(logger)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.Schedule),
		slog.String("api_url", cfg.APIURL),
		slog.Int("warm_locations", len(cfg.WarmTargets)),
		slog.Int("metrics_port", cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	warmer := newWarmer(cfg, logger)

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		warmer.run(runCtx)
	}); err != nil {
		logger.Error("invalid cron schedule", slog.String("schedule", cfg.Schedule), slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	logger.Info("refresh worker started")

	// Warm once at startup so a fresh deployment does not wait a full
	// cron interval for its first populated cache.
	if cfg.WarmOnStart {
		startCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		warmer.run(startCtx)
		cancel()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping worker")
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// workerConfig holds the environment-driven worker settings.
type workerConfig struct {
	Schedule    string
	APIURL      string
	WarmTargets []warmTarget
	WarmOnStart bool
	RunTimeout  time.Duration
	MetricsPort int
}

// warmTarget is one location to pre-warm. When coordinates are present the
// warm query carries them so the weather cache is populated alongside the
// other categories.
type warmTarget struct {
	Location string
	Lat, Lng string
}

// parseWarmTarget parses one WARM_LOCATIONS entry. The coordinate suffix
// is optional: "Pittsburgh" or "Pittsburgh@40.4406:-79.9959". The lat/lng
// separator is a colon because the entry list itself is comma-separated.
func parseWarmTarget(raw string) (warmTarget, error) {
	loc, coords, found := strings.Cut(raw, "@")
	t := warmTarget{Location: strings.TrimSpace(loc)}
	if t.Location == "" {
		return t, fmt.Errorf("empty location in entry %q", raw)
	}
	if !found {
		return t, nil
	}

	lat, lng, ok := strings.Cut(coords, ":")
	if !ok {
		return t, fmt.Errorf("coordinates in entry %q must be lat:lng", raw)
	}
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if _, err := strconv.ParseFloat(lat, 64); err != nil {
		return t, fmt.Errorf("bad latitude in entry %q: %w", raw, err)
	}
	if _, err := strconv.ParseFloat(lng, 64); err != nil {
		return t, fmt.Errorf("bad longitude in entry %q: %w", raw, err)
	}
	t.Lat, t.Lng = lat, lng
	return t, nil
}

func loadWorkerConfig(logger *slog.Logger) workerConfig {
	cfg := workerConfig{
		Schedule:    config.GetEnvString("REFRESH_CRON_SCHEDULE", "*/30 * * * *"),
		APIURL:      config.GetEnvString("API_URL", "http://localhost:8080"),
		WarmOnStart: config.GetEnvBool("WARM_ON_START", true),
		RunTimeout:  config.GetEnvDuration("REFRESH_RUN_TIMEOUT", 5*time.Minute),
		MetricsPort: config.GetEnvInt("WORKER_METRICS_PORT", 9091),
	}
	if err := config.ValidatePositiveDuration(cfg.RunTimeout); err != nil {
		logger.Error("invalid REFRESH_RUN_TIMEOUT", slog.Any("error", err))
		os.Exit(1)
	}
	for _, raw := range config.GetEnvStringList("WARM_LOCATIONS", nil) {
		target, err := parseWarmTarget(raw)
		if err != nil {
			logger.Warn("skipping malformed warm location", slog.String("entry", raw), slog.Any("error", err))
			continue
		}
		cfg.WarmTargets = append(cfg.WarmTargets, target)
	}
	if len(cfg.WarmTargets) == 0 {
		logger.Warn("no warm locations configured; worker will only trigger cache refreshes")
	}
	return cfg
}

// initLogger initializes and returns a structured logger based on
// environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
