package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/metrics"
	"curatordash/searchservice/internal/providers/feed"
)

// maxConcurrentFetches limits simultaneous outbound calls across all
// providers. A request with many keywords and many sources can plan dozens
// of tasks; remote feeds and rate-limited APIs should not see them all at
// once.
const maxConcurrentFetches = 10

type preparedSearch struct {
	request  domain.SearchRequest
	match    domain.MatchSpec
	selected []Provider
}

type providerRun struct {
	provider Provider
	tasks    []domain.FetchTask
	filtered bool
}

// Search fans the request out across the selected providers, then
// deduplicates, filters, ranks and caps the merged results. Individual
// provider failures degrade to status entries; the run fails only when the
// request itself is invalid.
func (s *Service) Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error) {
	prepared, err := s.prepareSearch(request)
	if err != nil {
		return domain.SearchResponse{}, err
	}

	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()
	metrics.SearchRequestsTotal.WithLabelValues(s.tier).Inc()

	runs := s.planRuns(prepared)
	statuses := make([]domain.ProviderStatus, len(runs))
	merged := make([]domain.Result, 0, 64)

	var mu sync.Mutex
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	var wg sync.WaitGroup

	for i, run := range runs {
		statusName := strings.ToLower(strings.TrimSpace(run.provider.Name()))
		statuses[i] = domain.ProviderStatus{Name: statusName, OK: true}

		for _, task := range run.tasks {
			wg.Add(1)
			go func(index int, run providerRun, task domain.FetchTask) {
				defer wg.Done()

				if err := sem.Acquire(runCtx, 1); err != nil {
					mu.Lock()
					statuses[index].OK = false
					statuses[index].Error = "context cancelled"
					mu.Unlock()
					return
				}
				defer sem.Release(1)

				taskStartedAt := time.Now()
				var items []domain.Result
				fetchErr := RetryWithBackoff(runCtx, s.retryCfg, func() error {
					var err error
					items, err = run.provider.Fetch(runCtx, task)
					return err
				})
				s.recordFetch(task, fetchErr, time.Since(taskStartedAt))

				if fetchErr != nil {
					// Missing feeds are an expected condition for niche
					// tags, not a provider failure.
					if errors.Is(fetchErr, feed.ErrFeedNotFound) {
						s.logger.Warn("feed unavailable",
							"provider", task.Provider,
							"feed_url", task.FeedURL,
							"error", fetchErr)
						return
					}
					mu.Lock()
					statuses[index].OK = false
					if statuses[index].Error == "" {
						statuses[index].Error = fetchErr.Error()
					}
					mu.Unlock()
					return
				}

				if !run.filtered {
					items = applyMatch(items, prepared.match)
				}

				mu.Lock()
				statuses[index].Count += len(items)
				merged = append(merged, items...)
				mu.Unlock()
			}(i, run, task)
		}
	}
	wg.Wait()

	results := dedupeAndRank(merged)
	results = applyDateFilter(results, prepared.request.DateFilter, time.Now())
	results = truncateResults(results, s.maxResults)

	metrics.SearchResultCount.WithLabelValues(s.tier).Observe(float64(len(results)))
	s.logger.Info("aggregation complete",
		"tier", s.tier,
		"keywords", prepared.request.Keywords,
		"providers", len(runs),
		"results", len(results),
		"elapsed_ms", time.Since(startedAt).Milliseconds())

	return domain.SearchResponse{
		Success:   true,
		Results:   results,
		Count:     len(results),
		Timestamp: time.Now().UTC(),
		Source:    s.tier,
		Metadata: domain.SearchMetadata{
			KeywordsProcessed: prepared.request.Keywords,
			Sources:           providerNames(prepared.selected),
			FiltersApplied:    filtersApplied(prepared.request),
			SearchMethod:      s.method,
			Providers:         statuses,
		},
	}, nil
}

func (s *Service) prepareSearch(request domain.SearchRequest) (preparedSearch, error) {
	keywords := make([]string, 0, len(request.Keywords))
	for _, keyword := range request.Keywords {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	if len(keywords) == 0 {
		return preparedSearch{}, ErrNoKeywords
	}

	selected, err := s.resolveProviders(request.Sources)
	if err != nil {
		return preparedSearch{}, err
	}

	request.Keywords = keywords
	request.Operator = domain.NormalizeOperator(string(request.Operator))
	request.DateFilter = request.EffectiveDateFilter()
	request.Filters = nil
	request.SearchType = domain.NormalizeSearchType(string(request.SearchType))

	return preparedSearch{
		request:  request,
		match:    request.Match(),
		selected: selected,
	}, nil
}

// planRuns asks each selected provider for its fetch tasks. Disabled
// credentialed providers plan nothing and are logged rather than reported
// as failures. Feed providers filter items while iterating; everything else
// is matched after the fetch settles.
func (s *Service) planRuns(prepared preparedSearch) []providerRun {
	runs := make([]providerRun, 0, len(prepared.selected))
	for _, provider := range prepared.selected {
		if !enabled(provider) {
			s.logger.Info("provider not configured, skipping",
				"provider", provider.Name())
			continue
		}
		tasks := provider.Plan(prepared.request)
		if len(tasks) == 0 {
			continue
		}
		runs = append(runs, providerRun{
			provider: provider,
			tasks:    tasks,
			filtered: provider.Info().Kind == "feed",
		})
	}
	return runs
}

func (s *Service) recordFetch(task domain.FetchTask, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(task.Provider, status).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(task.Provider).Observe(elapsed.Seconds())
}

func applyMatch(results []domain.Result, match domain.MatchSpec) []domain.Result {
	filtered := results[:0]
	for _, result := range results {
		if match.Matches(result.Title + " " + result.Summary) {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

func providerNames(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, provider := range providers {
		names = append(names, strings.ToLower(strings.TrimSpace(provider.Name())))
	}
	return names
}

func filtersApplied(request domain.SearchRequest) []string {
	filters := []string{"keyword-match", "dedupe"}
	if len(request.ExcludeKeywords) > 0 {
		filters = append(filters, "exclusions")
	}
	if request.DateFilter.MaxAge() > 0 {
		filters = append(filters, "date:"+string(request.DateFilter))
	}
	return filters
}
