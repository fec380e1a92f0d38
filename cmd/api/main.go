package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "localpulse/internal/handler/http"
	"localpulse/internal/infra/source"
	"localpulse/internal/infra/source/business"
	"localpulse/internal/infra/source/deals"
	"localpulse/internal/infra/source/events"
	"localpulse/internal/infra/source/news"
	"localpulse/internal/infra/source/weather"
	"localpulse/internal/usecase/aggregate"
	"localpulse/internal/usecase/location"
	"localpulse/pkg/config"
	"localpulse/pkg/ratelimit"
)

func main() {
	logger := initLogger()
	version := getVersion()

	svc := buildService(logger)

	handler := hhttp.NewRouter(hhttp.RouterConfig{
		Logger:  logger,
		Service: svc,
		Version: version,
		ClientLimiter: hhttp.NewClientLimiter(
			float64(config.GetEnvInt("CLIENT_RATE_LIMIT_RPS", 10)),
			config.GetEnvInt("CLIENT_RATE_LIMIT_BURST", 20),
		),
	})

	runServer(logger, handler, version)
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

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// cacheTTL reads a category TTL from the environment, clamping unusable
// values back to the default.
func cacheTTL(logger *slog.Logger, key string, def time.Duration) time.Duration {
	ttl := config.GetEnvDuration(key, def)
	if err := config.ValidateDurationRange(ttl, time.Minute, 24*time.Hour); err != nil {
		logger.Warn("cache TTL out of range, using default",
			slog.String("key", key),
			slog.Duration("default", def),
			slog.Any("error", err))
		return def
	}
	return ttl
}

// buildService wires every provider adapter, one rate limiter per external
// API sized to that API's documented quota, into the five category
// aggregators behind the location façade.
func buildService(logger *slog.Logger) *location.Service {
	client := source.NewHTTPClient(config.GetEnvDuration("PROVIDER_TIMEOUT", source.DefaultTimeout))

	eventsAgg := aggregate.NewEvents(
		cacheTTL(logger, "EVENTS_CACHE_TTL", 15*time.Minute),
		events.NewCommunity(events.CommunityConfig{
			BaseURL: config.GetEnvString("COMMUNITY_EVENTS_BASE_URL", "https://api.community-events.example.com"),
			APIKey:  os.Getenv("COMMUNITY_EVENTS_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("community-events", 30, time.Minute),
		}),
		events.NewTicketing(events.TicketingConfig{
			BaseURL: config.GetEnvString("TICKETING_BASE_URL", "https://app.ticketing.example.com/discovery/v2"),
			APIKey:  os.Getenv("TICKETING_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("ticketing", 5, time.Second),
		}),
		events.NewHockeySchedule(events.ScheduleConfig{
			BaseURL: config.GetEnvString("HOCKEY_SCHEDULE_BASE_URL", "https://api.hockey-league.example.com/v1"),
			Client:  client,
			Limiter: providerLimiter("hockey-schedule", 10, time.Minute),
		}),
		events.NewBaseballSchedule(events.ScheduleConfig{
			BaseURL: config.GetEnvString("BASEBALL_SCHEDULE_BASE_URL", "https://api.baseball-league.example.com/v1"),
			Client:  client,
			Limiter: providerLimiter("baseball-schedule", 10, time.Minute),
		}),
		events.NewFootballSchedule(events.ScheduleConfig{
			BaseURL: config.GetEnvString("FOOTBALL_SCHEDULE_BASE_URL", "https://api.football-league.example.com/v1"),
			Client:  client,
			Limiter: providerLimiter("football-schedule", 10, time.Minute),
		}),
	)

	newsAgg := aggregate.NewNews(
		cacheTTL(logger, "NEWS_CACHE_TTL", 30*time.Minute),
		news.NewSearch(news.SearchConfig{
			BaseURL: config.GetEnvString("NEWSAPI_BASE_URL", "https://newsapi.example.org/v2"),
			APIKey:  os.Getenv("NEWSAPI_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("news-search", 100, time.Hour),
		}),
		news.NewCurated(news.CuratedConfig{
			FeedURL: os.Getenv("CURATED_FEED_URL"),
			Client:  client,
			Limiter: providerLimiter("curated-feed", 12, time.Hour),
		}),
	)

	weatherAgg := aggregate.NewWeather(
		cacheTTL(logger, "WEATHER_CACHE_TTL", 10*time.Minute),
		weather.NewForecast(weather.ForecastConfig{
			BaseURL: config.GetEnvString("FORECAST_BASE_URL", "https://api.forecast.example.com"),
			APIKey:  os.Getenv("FORECAST_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("forecast-api", 60, time.Minute),
		}),
		weather.NewGovernment(weather.GovernmentConfig{
			BaseURL: config.GetEnvString("GOV_FORECAST_BASE_URL", "https://api.weather.gov"),
			Client:  client,
			Limiter: providerLimiter("gov-forecast", 30, time.Minute),
		}),
	)

	dealsAgg := aggregate.NewDeals(
		cacheTTL(logger, "DEALS_CACHE_TTL", 60*time.Minute),
		deals.NewDining(deals.DiningConfig{
			BaseURL: config.GetEnvString("DINING_DEALS_BASE_URL", "https://api.dining-deals.example.com/v1"),
			APIKey:  os.Getenv("DINING_DEALS_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("dining-deals", 20, time.Minute),
		}),
		deals.NewCoupons(deals.CouponsConfig{
			BaseURL: config.GetEnvString("COUPON_API_BASE_URL", "https://api.coupons.example.com/v2"),
			APIKey:  os.Getenv("COUPON_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("coupon-api", 500, 24*time.Hour),
		}),
		deals.NewRetail(deals.RetailConfig{
			BaseURL: config.GetEnvString("RETAIL_OFFERS_BASE_URL", "https://api.retail-offers.example.com"),
			APIKey:  os.Getenv("RETAIL_OFFERS_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("retail-offers", 50, time.Hour),
		}),
		deals.NewLocalPage(deals.LocalPageConfig{
			BaseURL: config.GetEnvString("LOCAL_DEALS_PAGE_URL", "https://deals.localpage.example.com"),
			Client:  client,
			Limiter: providerLimiter("local-deals-page", 6, time.Hour),
		}),
	)

	businessAgg := aggregate.NewBusiness(
		cacheTTL(logger, "BUSINESS_CACHE_TTL", 30*time.Minute),
		business.NewSearch(business.SearchConfig{
			BaseURL: config.GetEnvString("BUSINESS_SEARCH_BASE_URL", "https://api.business-search.example.com/v3"),
			APIKey:  os.Getenv("BUSINESS_SEARCH_API_KEY"),
			Client:  client,
			Limiter: providerLimiter("business-search", 5000, 24*time.Hour),
		}),
	)

	logger.Info("aggregation service initialized",
		slog.Int("event_adapters", 5),
		slog.Int("news_adapters", 2),
		slog.Int("weather_adapters", 2),
		slog.Int("deal_adapters", 4),
		slog.Int("business_adapters", 1))

	return location.NewService(eventsAgg, newsAgg, dealsAgg, weatherAgg, businessAgg)
}

// providerLimiter builds one outbound limiter sized to a provider's quota.
// The defaults encode each provider's documented budget; both are
// overridable per provider through <NAME>_RATE_LIMIT / <NAME>_RATE_WINDOW.
func providerLimiter(name string, limit int, window time.Duration) *ratelimit.Limiter {
	envPrefix := envName(name)
	return ratelimit.New(name,
		config.GetEnvInt(envPrefix+"_RATE_LIMIT", limit),
		config.GetEnvDuration(envPrefix+"_RATE_WINDOW", window),
	)
}

// envName converts an adapter name to its environment variable prefix
// ("news-search" -> "NEWS_SEARCH").
func envName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-':
			out[i] = '_'
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		default:
			out[i] = c
		}
	}
	return string(out)
}

// runServer starts the HTTP server and blocks until a shutdown signal,
// then drains in-flight requests before exiting.
func runServer(logger *slog.Logger, handler http.Handler, version string) {
	addr := ":" + config.GetEnvString("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api server starting", slog.String("addr", addr), slog.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
