package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"curatordash/searchservice/internal/domain"
)

var (
	ErrNoKeywords      = errors.New("at least one keyword is required")
	ErrNoProviders     = errors.New("no content providers configured")
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider is one content source. Plan turns a request into independent
// fetch tasks (one per keyword or feed URL); the service runs each task in
// its own goroutine and Fetch must be safe for concurrent use.
type Provider interface {
	Name() string
	Info() domain.ProviderInfo
	Plan(request domain.SearchRequest) []domain.FetchTask
	Fetch(ctx context.Context, task domain.FetchTask) ([]domain.Result, error)
}

// Conditional is an optional interface for providers that need credentials.
// A disabled provider stays registered but plans no tasks and is reported
// as skipped rather than failed.
type Conditional interface {
	Enabled() bool
}

type Service struct {
	providers  map[string]Provider
	order      []string
	timeout    time.Duration
	maxResults int
	method     string
	tier       string
	logger     *slog.Logger
	retryCfg   RetryConfig
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxResults caps the deduplicated result list after ranking.
func WithMaxResults(max int) ServiceOption {
	return func(s *Service) {
		if max > 0 {
			s.maxResults = max
		}
	}
}

// WithSearchMethod sets the metadata label reported in responses.
func WithSearchMethod(method string) ServiceOption {
	return func(s *Service) {
		s.method = method
	}
}

// WithTier names the service for logs and metrics (free or premium).
func WithTier(tier string) ServiceOption {
	return func(s *Service) {
		if tier != "" {
			s.tier = tier
		}
	}
}

func WithRetryConfig(cfg RetryConfig) ServiceOption {
	return func(s *Service) {
		s.retryCfg = cfg
	}
}

func NewService(providers []Provider, timeout time.Duration, opts ...ServiceOption) *Service {
	registry := make(map[string]Provider, len(providers))
	order := make([]string, 0, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		if _, exists := registry[name]; exists {
			continue
		}
		registry[name] = provider
		order = append(order, name)
	}

	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	svc := &Service{
		providers:  registry,
		order:      order,
		timeout:    timeout,
		maxResults: 200,
		method:     "aggregation",
		tier:       "free",
		logger:     slog.Default(),
		retryCfg:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Providers lists the registered providers sorted by name, with the enabled
// flag resolved for credentialed adapters.
func (s *Service) Providers() []domain.ProviderInfo {
	if len(s.providers) == 0 {
		return nil
	}
	items := make([]domain.ProviderInfo, 0, len(s.providers))
	for _, provider := range s.providers {
		info := provider.Info()
		if info.Name == "" {
			info.Name = strings.ToLower(strings.TrimSpace(provider.Name()))
		}
		if info.Label == "" {
			info.Label = info.Name
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// Available reports whether any registered provider can currently serve
// requests. Credentialed providers count only when configured.
func (s *Service) Available() bool {
	for _, provider := range s.providers {
		if enabled(provider) {
			return true
		}
	}
	return false
}

// resolveProviders maps requested source names onto registered providers.
// An empty request selects every provider in registration order.
func (s *Service) resolveProviders(names []string) ([]Provider, error) {
	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}

	if len(names) == 0 {
		selected := make([]Provider, 0, len(s.order))
		for _, name := range s.order {
			selected = append(selected, s.providers[name])
		}
		return selected, nil
	}

	selected := make([]Provider, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		provider, ok := s.providers[name]
		if !ok {
			return nil, ErrUnknownProvider
		}
		selected = append(selected, provider)
	}
	if len(selected) == 0 {
		return nil, ErrNoProviders
	}
	return selected, nil
}

func enabled(provider Provider) bool {
	if conditional, ok := provider.(Conditional); ok {
		return conditional.Enabled()
	}
	return true
}
