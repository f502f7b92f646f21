package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	UserAgent      string
	AuthToken      string
	RedisURL       string
	OTLPEndpoint   string
	Environment    string

	GitHubToken    string
	GoogleAPIKey   string
	GoogleEngineID string
	BingAPIKey     string
	YouTubeAPIKey  string

	FreeResultCap    int
	PremiumResultCap int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 25)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:      getEnv("SEARCH_USER_AGENT", "curator-search/1.0"),
		AuthToken:      strings.TrimSpace(os.Getenv("AUTH_TOKEN")),
		RedisURL:       getEnv("REDIS_URL", ""),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Environment:    getEnv("APP_ENV", "development"),

		GitHubToken:    strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		GoogleAPIKey:   strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GoogleEngineID: strings.TrimSpace(os.Getenv("GOOGLE_SEARCH_ENGINE_ID")),
		BingAPIKey:     strings.TrimSpace(os.Getenv("BING_SEARCH_API_KEY")),
		YouTubeAPIKey:  resolveYouTubeKey(),

		FreeResultCap:    getEnvInt("SEARCH_FREE_RESULT_CAP", 200),
		PremiumResultCap: getEnvInt("SEARCH_PREMIUM_RESULT_CAP", 100),
	}
}

// HasGoogleAPI reports whether the Custom Search pair is configured.
func (c Config) HasGoogleAPI() bool {
	return c.GoogleAPIKey != "" && c.GoogleEngineID != ""
}

func (c Config) HasBingAPI() bool { return c.BingAPIKey != "" }

// HasYouTubeAPI is true with a dedicated key or by borrowing the Google
// API key, which serves the Data API from the same cloud project.
func (c Config) HasYouTubeAPI() bool { return c.YouTubeAPIKey != "" }

func resolveYouTubeKey() string {
	if key := strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
