package googlesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/providers/common"
)

const (
	defaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	defaultLimit    = 30

	// The API serves at most 10 results per page; cap pagination at three
	// pages per keyword to stay inside the daily quota.
	pageSize = 10
	maxPages = 3
)

type Config struct {
	APIKey   string
	EngineID string
	Endpoint string
	Client   *http.Client
}

// Provider is the premium web-search adapter backed by the Custom Search
// JSON API. Disabled (contributes nothing) unless both the API key and the
// search engine id are configured.
type Provider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	engineID string
}

type searchPage struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Pagemap struct {
		CSEImage []struct {
			Src string `json:"src"`
		} `json:"cse_image"`
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Provider{
		client:   client,
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		engineID: strings.TrimSpace(cfg.EngineID),
	}
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) Enabled() bool {
	return p.apiKey != "" && p.engineID != ""
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    "google",
		Label:   "Google Custom Search",
		Kind:    "web-search",
		Premium: true,
	}
}

func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	if !p.Enabled() {
		return nil
	}
	limit := request.SourceLimit("google", defaultLimit)
	tasks := make([]domain.FetchTask, 0, len(request.Keywords))
	for _, keyword := range request.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		tasks = append(tasks, domain.FetchTask{
			Provider:   "google",
			Keyword:    keyword,
			Limit:      limit,
			DateFilter: request.DateFilter,
			SearchType: domain.NormalizeSearchType(string(request.SearchType)),
		})
	}
	return tasks
}

func (p *Provider) Fetch(ctx context.Context, task domain.FetchTask) ([]domain.Result, error) {
	if !p.Enabled() {
		return nil, nil
	}
	wanted := task.Limit
	if wanted <= 0 {
		wanted = defaultLimit
	}

	queryText := task.Keyword
	if task.SearchType == domain.SearchTypeVideo {
		queryText += " site:youtube.com OR site:vimeo.com OR site:dailymotion.com"
	}

	results := make([]domain.Result, 0, wanted)
	for page := 0; page < maxPages && len(results) < wanted; page++ {
		items, err := p.fetchPage(ctx, queryText, task.DateFilter, page)
		if err != nil {
			// Partial pages already collected are worth more than a clean
			// error; only the first page failing is a provider failure.
			if page == 0 {
				return nil, err
			}
			break
		}
		if len(items) == 0 {
			break
		}
		now := time.Now()
		for _, item := range items {
			results = append(results, toResult(item, now))
			if len(results) >= wanted {
				break
			}
		}
		// A short page means the index is exhausted; asking for another
		// page wastes quota and can replay the same items.
		if len(items) < pageSize {
			break
		}
	}
	return results, nil
}

func (p *Provider) fetchPage(ctx context.Context, queryText string, filter domain.DateFilter, page int) ([]searchItem, error) {
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("key", p.apiKey)
	query.Set("cx", p.engineID)
	query.Set("q", queryText)
	query.Set("num", strconv.Itoa(pageSize))
	query.Set("start", strconv.Itoa(page*pageSize+1))
	query.Set("hl", "ja")
	query.Set("lr", "lang_ja|lang_en")
	if restrict := dateRestrict(filter); restrict != "" {
		query.Set("dateRestrict", restrict)
	}
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("google HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google payload: %w", err)
	}
	return payload.Items, nil
}

func toResult(item searchItem, now time.Time) domain.Result {
	contentType := common.ClassifyURL(item.Link)

	thumbnail := ""
	if len(item.Pagemap.CSEImage) > 0 {
		thumbnail = item.Pagemap.CSEImage[0].Src
	}
	publishedAt := now.UTC()
	if len(item.Pagemap.Metatags) > 0 {
		tags := item.Pagemap.Metatags[0]
		if thumbnail == "" {
			thumbnail = tags["og:image"]
		}
		if raw := tags["article:published_time"]; raw != "" {
			publishedAt = common.ParsePublished(raw, now)
		}
	}
	if contentType == domain.ContentTypeVideo {
		if yt := common.YouTubeThumbnail(item.Link); yt != "" {
			thumbnail = yt
		}
	}

	source := common.HostLabel(item.Link)
	if source == "" {
		source = "Google"
	}

	return domain.Result{
		URL:          item.Link,
		Title:        item.Title,
		Summary:      item.Snippet,
		ThumbnailURL: thumbnail,
		Source:       source,
		PublishedAt:  publishedAt,
		ContentType:  contentType,
	}
}

// dateRestrict maps the shared date filter onto the API's d/w/m syntax.
func dateRestrict(filter domain.DateFilter) string {
	switch filter {
	case domain.DateFilterDay:
		return "d1"
	case domain.DateFilter3Days:
		return "d3"
	case domain.DateFilterWeek:
		return "w1"
	case domain.DateFilterMonth:
		return "m1"
	default:
		return ""
	}
}
