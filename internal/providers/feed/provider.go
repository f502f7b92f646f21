package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/providers/common"
)

const (
	defaultUserAgent = "curator-search/1.0"
	defaultLimit     = 20
	maxFeedBytes     = 4 * 1024 * 1024
)

// ErrFeedNotFound marks 404-class feed fetches. Tags or topics that do not
// exist upstream are an expected condition for sparse subjects, so the
// orchestrator logs these at warning level instead of error.
var ErrFeedNotFound = errors.New("feed not found")

type Config struct {
	Name        string
	Label       string
	ContentType domain.ContentType
	FeedURLs    []string
	Limit       int
	UserAgent   string
	Client      *http.Client
}

// Provider fetches one or more syndication feeds and filters items with the
// request's keyword matcher during iteration. The custom variant reads its
// feed list from the request instead of a fixed catalog entry.
type Provider struct {
	name        string
	label       string
	contentType domain.ContentType
	feedURLs    []string
	limit       int
	userAgent   string
	client      *http.Client
	parser      *gofeed.Parser
	custom      bool
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeArticle
	}
	return &Provider{
		name:        strings.ToLower(strings.TrimSpace(cfg.Name)),
		label:       cfg.Label,
		contentType: contentType,
		feedURLs:    cfg.FeedURLs,
		limit:       limit,
		userAgent:   userAgent,
		client:      client,
		parser:      gofeed.NewParser(),
	}
}

// NewCustom builds the adapter for caller-supplied feed URLs.
func NewCustom(cfg Config) *Provider {
	cfg.Name = "customrss"
	if cfg.Label == "" {
		cfg.Label = "Custom RSS"
	}
	provider := NewProvider(cfg)
	provider.custom = true
	return provider
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:  p.name,
		Label: p.label,
		Kind:  "feed",
	}
}

// Plan emits one task per feed URL. Catalog providers split their limit
// across feeds (remainder to the earlier feeds); caller-supplied feeds each
// get the full limit, since every URL stands in for a source the user chose.
func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	feeds := p.feedURLs
	if p.custom {
		feeds = request.CustomFeedURLs
	}
	if len(feeds) == 0 {
		return nil
	}

	limit := request.SourceLimit(p.name, p.limit)
	share := limit
	remainder := 0
	if !p.custom {
		share = limit / len(feeds)
		remainder = limit % len(feeds)
	}

	tasks := make([]domain.FetchTask, 0, len(feeds))
	for i, feedURL := range feeds {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}
		taskLimit := share
		if i < remainder {
			taskLimit++
		}
		if taskLimit <= 0 {
			taskLimit = 1
		}
		tasks = append(tasks, domain.FetchTask{
			Provider: p.name,
			FeedURL:  feedURL,
			Label:    p.labelFor(feedURL),
			Limit:    taskLimit,
			Match:    request.Match(),
		})
	}
	return tasks
}

func (p *Provider) labelFor(feedURL string) string {
	if !p.custom {
		return p.label
	}
	if host := common.HostLabel(feedURL); host != "" {
		return host
	}
	return "RSS"
}

func (p *Provider) Fetch(ctx context.Context, task domain.FetchTask) ([]domain.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.FeedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, task.FeedURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed HTTP %d: %s", resp.StatusCode, task.FeedURL)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	parsed, err := p.parser.ParseString(string(payload))
	if err != nil {
		// Degraded mode: some feeds ship malformed XML that the structured
		// parser rejects but a line-level extractor can still salvage.
		items := parseFallback(payload)
		if len(items) == 0 {
			return nil, fmt.Errorf("parse feed %s: %w", task.FeedURL, err)
		}
		return p.collectFallback(items, task), nil
	}

	return p.collect(parsed, task), nil
}

// collect walks feed items in order, applies the matcher, and stops once the
// task limit is reached rather than scanning the whole feed.
func (p *Provider) collect(parsed *gofeed.Feed, task domain.FetchTask) []domain.Result {
	now := time.Now()
	results := make([]domain.Result, 0, task.Limit)
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		if len(results) >= task.Limit {
			break
		}
		text := item.Title + " " + item.Description
		if !task.Match.Matches(text) {
			continue
		}

		publishedAt := now.UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		} else if item.Published != "" {
			publishedAt = common.ParsePublished(item.Published, now)
		}

		summary := strings.TrimSpace(item.Description)
		if summary == "" {
			summary = strings.TrimSpace(item.Content)
		}

		results = append(results, domain.Result{
			URL:          strings.TrimSpace(item.Link),
			Title:        strings.TrimSpace(item.Title),
			Summary:      summary,
			ThumbnailURL: itemThumbnail(item),
			Source:       task.Label,
			PublishedAt:  publishedAt,
			ContentType:  p.contentType,
		})
	}
	return results
}

func (p *Provider) collectFallback(items []fallbackItem, task domain.FetchTask) []domain.Result {
	now := time.Now()
	results := make([]domain.Result, 0, task.Limit)
	for _, item := range items {
		if len(results) >= task.Limit {
			break
		}
		if !task.Match.Matches(item.Title + " " + item.Description) {
			continue
		}
		results = append(results, domain.Result{
			URL:         item.Link,
			Title:       item.Title,
			Summary:     item.Description,
			Source:      task.Label,
			PublishedAt: common.ParsePublished(item.PubDate, now),
			ContentType: p.contentType,
		})
	}
	return results
}

// itemThumbnail prefers a media:thumbnail extension, then an enclosure with
// an image MIME type.
func itemThumbnail(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["thumbnail"] {
			if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
				return url
			}
		}
		for _, ext := range media["content"] {
			if strings.HasPrefix(ext.Attrs["type"], "image") {
				if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
					return url
				}
			}
		}
	}
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image") && strings.TrimSpace(enclosure.URL) != "" {
			return strings.TrimSpace(enclosure.URL)
		}
	}
	return ""
}
