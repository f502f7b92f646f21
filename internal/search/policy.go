package search

import (
	"context"
	"log/slog"
	"strings"

	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/metrics"
)

// Selector routes a unified search to the premium tier when the caller asks
// for it and at least one premium provider is configured, falling back to
// the free tier otherwise. The fallback is an in-process call on the same
// services the dedicated endpoints use.
type Selector struct {
	free    *Service
	premium *Service
	logger  *slog.Logger
}

func NewSelector(free, premium *Service, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{free: free, premium: premium, logger: logger}
}

// AvailableAPIs reports which premium providers are currently configured.
func (s *Selector) AvailableAPIs() map[string]bool {
	apis := make(map[string]bool)
	if s.premium == nil {
		return apis
	}
	for name, provider := range s.premium.providers {
		apis[name] = enabled(provider)
	}
	return apis
}

func (s *Selector) Search(ctx context.Context, request domain.SearchRequest, usePremium bool) (domain.SearchResponse, error) {
	apis := s.AvailableAPIs()

	if usePremium && s.premium != nil && s.premium.Available() {
		// Source selections follow the tier: names the premium registry
		// does not know (qiita, zenn, ...) are dropped so a tab configured
		// for free sources can still opt into premium search.
		premiumRequest := request
		premiumRequest.Sources = s.premiumSources(request.Sources)

		response, err := s.premium.Search(ctx, premiumRequest)
		if err == nil {
			response.Metadata.AvailableAPIs = apis
			return response, nil
		}
		if ctx.Err() != nil {
			return domain.SearchResponse{}, err
		}
		// Invalid requests fail the same way on either tier; only provider
		// trouble justifies the fallback.
		if err == ErrNoKeywords {
			return domain.SearchResponse{}, err
		}
		s.logger.Warn("premium search failed, falling back to free providers", "error", err)
		metrics.PremiumFallbacksTotal.Inc()
	} else if usePremium {
		s.logger.Info("premium search requested but no premium provider is configured, using free providers")
		metrics.PremiumFallbacksTotal.Inc()
	}

	freeRequest := request
	freeRequest.Sources = s.freeSources(request.Sources)
	response, err := s.free.Search(ctx, freeRequest)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	response.Metadata.AvailableAPIs = apis
	return response, nil
}

func (s *Selector) premiumSources(names []string) []string {
	if s.premium == nil {
		return nil
	}
	return knownSources(s.premium, names)
}

func (s *Selector) freeSources(names []string) []string {
	return knownSources(s.free, names)
}

// knownSources keeps only the names the service registry recognizes; an
// empty result means "all providers of this tier".
func knownSources(svc *Service, names []string) []string {
	if svc == nil || len(names) == 0 {
		return nil
	}
	kept := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := svc.providers[name]; ok {
			kept = append(kept, name)
		}
	}
	return kept
}
