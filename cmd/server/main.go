package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "curatordash/searchservice/internal/api/http"
	"curatordash/searchservice/internal/app"
	"curatordash/searchservice/internal/auth"
	"curatordash/searchservice/internal/metrics"
	"curatordash/searchservice/internal/providers/bing"
	"curatordash/searchservice/internal/providers/duckduckgo"
	"curatordash/searchservice/internal/providers/feed"
	"curatordash/searchservice/internal/providers/github"
	"curatordash/searchservice/internal/providers/googlesearch"
	"curatordash/searchservice/internal/providers/youtube"
	"curatordash/searchservice/internal/search"
	"curatordash/searchservice/internal/store"
	"curatordash/searchservice/internal/telemetry"
)

func main() {
	// Local development keeps API keys in .env; absence is not an error.
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "curator-search",
		Environment: cfg.Environment,
	})
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "curator-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasGoogleAPI", cfg.HasGoogleAPI()),
		slog.Bool("hasBingAPI", cfg.HasBingAPI()),
		slog.Bool("hasYouTubeAPI", cfg.HasYouTubeAPI()),
		slog.Bool("hasGitHubToken", cfg.GitHubToken != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("authRequired", cfg.AuthToken != ""),
	)

	httpClient := func() *http.Client {
		return &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	var freeProviders []search.Provider
	for _, feedProvider := range feed.Catalog(feed.CatalogConfig{
		UserAgent: cfg.UserAgent,
		Client:    httpClient(),
	}) {
		freeProviders = append(freeProviders, feedProvider)
	}
	freeProviders = append(freeProviders,
		github.NewProvider(github.Config{
			UserAgent: cfg.UserAgent,
			Token:     cfg.GitHubToken,
			Client:    httpClient(),
		}),
		duckduckgo.NewProvider(duckduckgo.Config{
			UserAgent: cfg.UserAgent,
			Client:    httpClient(),
		}),
	)

	premiumProviders := []search.Provider{
		googlesearch.NewProvider(googlesearch.Config{
			APIKey:   cfg.GoogleAPIKey,
			EngineID: cfg.GoogleEngineID,
			Client:   httpClient(),
		}),
		youtube.NewProvider(youtube.Config{
			APIKey: cfg.YouTubeAPIKey,
			Client: httpClient(),
			Logger: logger,
		}),
		bing.NewProvider(bing.Config{
			APIKey: cfg.BingAPIKey,
			Client: httpClient(),
		}),
	}

	freeService := search.NewService(freeProviders, cfg.RequestTimeout,
		search.WithLogger(logger),
		search.WithTier("free"),
		search.WithSearchMethod("free-aggregation"),
		search.WithMaxResults(cfg.FreeResultCap),
	)
	premiumService := search.NewService(premiumProviders, cfg.RequestTimeout,
		search.WithLogger(logger),
		search.WithTier("premium"),
		search.WithSearchMethod("premium-api"),
		search.WithMaxResults(cfg.PremiumResultCap),
	)
	selector := search.NewSelector(freeService, premiumService, logger)

	tabStore, storeBackend := buildStore(cfg, logger)

	handler := apihttp.NewServer(freeService, premiumService, selector, tabStore,
		apihttp.WithLogger(logger),
		apihttp.WithAuthenticator(auth.New(cfg.AuthToken)),
		apihttp.WithStoreBackend(storeBackend),
	).Handler()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A fetch across every source can run close to the aggregation
		// timeout; leave headroom for the response write.
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("curator search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("store", storeBackend),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("curator search service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildStore prefers Redis when configured and reachable, falling back to
// the in-memory store so the service still comes up without it.
func buildStore(cfg app.Config, logger *slog.Logger) (store.Store, string) {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return store.NewMemoryStore(), "memory"
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory store", slog.String("error", err.Error()))
		return store.NewMemoryStore(), "memory"
	}
	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory store", slog.String("error", err.Error()))
		return store.NewMemoryStore(), "memory"
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return store.NewRedisStore(client), "redis"
}
