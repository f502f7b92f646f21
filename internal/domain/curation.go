package domain

import "time"

type SearchOperator string

const (
	SearchOperatorAnd SearchOperator = "AND"
	SearchOperatorOr  SearchOperator = "OR"
)

type SearchType string

const (
	SearchTypeWeb   SearchType = "web"
	SearchTypeVideo SearchType = "video"
)

type DateFilter string

const (
	DateFilterDay   DateFilter = "24h"
	DateFilter3Days DateFilter = "3d"
	DateFilterWeek  DateFilter = "1w"
	DateFilterMonth DateFilter = "1m"
	DateFilterAll   DateFilter = "all"
)

type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypeVideo   ContentType = "video"
	ContentTypeNews    ContentType = "news"
	ContentTypeBlog    ContentType = "blog"
	ContentTypeWebsite ContentType = "website"
)

// SearchFilters is the nested filter object some clients send instead of
// the flat dateFilter field. DateRange takes effect only when dateFilter
// is absent.
type SearchFilters struct {
	DateRange string `json:"dateRange,omitempty"`
}

// SearchRequest is one aggregation run. Keywords must contain at least one
// non-empty entry; everything else degrades to a default.
type SearchRequest struct {
	Keywords        []string       `json:"keywords"`
	ExcludeKeywords []string       `json:"excludeKeywords,omitempty"`
	Operator        SearchOperator `json:"searchOperator,omitempty"`
	Sources         []string       `json:"searchSources,omitempty"`
	SourceLimits    map[string]int `json:"sourceLimits,omitempty"`
	DateFilter      DateFilter     `json:"dateFilter,omitempty"`
	Filters         *SearchFilters `json:"filters,omitempty"`
	CustomFeedURLs  []string       `json:"customRssFeeds,omitempty"`
	SearchType      SearchType     `json:"searchType,omitempty"`
}

// EffectiveDateFilter resolves the flat dateFilter field against the nested
// filters.dateRange form, flat field winning.
func (r SearchRequest) EffectiveDateFilter() DateFilter {
	if r.DateFilter == "" && r.Filters != nil {
		return NormalizeDateFilter(r.Filters.DateRange)
	}
	return NormalizeDateFilter(string(r.DateFilter))
}

func (r SearchRequest) Match() MatchSpec {
	return MatchSpec{
		Keywords:        r.Keywords,
		ExcludeKeywords: r.ExcludeKeywords,
		Operator:        NormalizeOperator(string(r.Operator)),
	}
}

// SourceLimit returns the caller's per-provider cap, or fallback when unset.
func (r SearchRequest) SourceLimit(provider string, fallback int) int {
	if limit, ok := r.SourceLimits[provider]; ok && limit > 0 {
		return limit
	}
	return fallback
}

// Result is the canonical normalized article/video/post record. URL is the
// dedup key; an empty URL is discarded downstream.
type Result struct {
	URL          string      `json:"url"`
	Title        string      `json:"title"`
	Summary      string      `json:"summary"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Source       string      `json:"source"`
	PublishedAt  time.Time   `json:"publishedAt"`
	ContentType  ContentType `json:"type"`
}

// FetchTask is one outbound call a provider has planned for itself: a single
// keyword query, a single feed URL, or one catch-all call. The orchestrator
// runs each task in its own goroutine.
type FetchTask struct {
	Provider   string
	Keyword    string
	FeedURL    string
	Label      string
	Limit      int
	DateFilter DateFilter
	SearchType SearchType
	Match      MatchSpec
}

type ProviderInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Premium bool   `json:"premium"`
}

// ProviderStatus reports how a single provider fared during one aggregation.
// A failed provider contributes zero results; the run itself still succeeds.
type ProviderStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type SearchMetadata struct {
	KeywordsProcessed []string         `json:"keywordsProcessed"`
	Sources           []string         `json:"sources"`
	FiltersApplied    []string         `json:"filtersApplied"`
	SearchMethod      string           `json:"searchMethod,omitempty"`
	AvailableAPIs     map[string]bool  `json:"availableAPIs,omitempty"`
	Providers         []ProviderStatus `json:"providers,omitempty"`
}

type SearchResponse struct {
	Success   bool           `json:"success"`
	Results   []Result       `json:"results"`
	Count     int            `json:"count"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Metadata  SearchMetadata `json:"metadata"`
}

// Tab is a user-defined topic configuration. The search core reads it as an
// immutable snapshot; lifecycle is owned by the store.
type Tab struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Name            string         `json:"name"`
	Keywords        []string       `json:"keywords"`
	ExcludeKeywords []string       `json:"excludeKeywords,omitempty"`
	Operator        SearchOperator `json:"searchOperator,omitempty"`
	Sources         []string       `json:"searchSources,omitempty"`
	SourceLimits    map[string]int `json:"sourceLimits,omitempty"`
	CustomFeedURLs  []string       `json:"customRssFeeds,omitempty"`
	DateFilter      DateFilter     `json:"dateFilter,omitempty"`
	UsePremium      bool           `json:"usePremiumAPIs,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// SearchRequest builds the aggregation input from a tab snapshot.
func (t Tab) SearchRequest() SearchRequest {
	return SearchRequest{
		Keywords:        t.Keywords,
		ExcludeKeywords: t.ExcludeKeywords,
		Operator:        t.Operator,
		Sources:         t.Sources,
		SourceLimits:    t.SourceLimits,
		DateFilter:      t.DateFilter,
		CustomFeedURLs:  t.CustomFeedURLs,
	}
}

// Article is a stored search result bound to a tab.
type Article struct {
	ID           string      `json:"id"`
	TabID        string      `json:"tabId"`
	URL          string      `json:"url"`
	Title        string      `json:"title"`
	Summary      string      `json:"summary"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Source       string      `json:"source"`
	ContentType  ContentType `json:"type"`
	PublishedAt  time.Time   `json:"publishedAt"`
	FetchedAt    time.Time   `json:"fetchedAt"`
}

func NormalizeOperator(raw string) SearchOperator {
	switch SearchOperator(raw) {
	case SearchOperatorAnd:
		return SearchOperatorAnd
	default:
		return SearchOperatorOr
	}
}

func NormalizeSearchType(raw string) SearchType {
	switch SearchType(raw) {
	case SearchTypeVideo:
		return SearchTypeVideo
	default:
		return SearchTypeWeb
	}
}

func NormalizeDateFilter(raw string) DateFilter {
	switch DateFilter(raw) {
	case DateFilterDay, DateFilter3Days, DateFilterWeek, DateFilterMonth:
		return DateFilter(raw)
	default:
		return DateFilterAll
	}
}

// MaxAge returns the oldest acceptable article age, or 0 when unbounded.
func (f DateFilter) MaxAge() time.Duration {
	switch f {
	case DateFilterDay:
		return 24 * time.Hour
	case DateFilter3Days:
		return 3 * 24 * time.Hour
	case DateFilterWeek:
		return 7 * 24 * time.Hour
	case DateFilterMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}
