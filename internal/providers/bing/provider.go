package bing

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
	defaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"
	defaultLimit    = 30
	maxPageSize     = 50
)

type Config struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// Provider is the Bing Web Search v7 adapter. A single response carries both
// web pages and videos; both are mapped so one call serves either search type.
type Provider struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

type searchPayload struct {
	WebPages struct {
		Value []struct {
			Name            string `json:"name"`
			URL             string `json:"url"`
			Snippet         string `json:"snippet"`
			DateLastCrawled string `json:"dateLastCrawled"`
		} `json:"value"`
	} `json:"webPages"`
	Videos struct {
		Value []struct {
			Name          string `json:"name"`
			ContentURL    string `json:"contentUrl"`
			Description   string `json:"description"`
			ThumbnailURL  string `json:"thumbnailUrl"`
			DatePublished string `json:"datePublished"`
			Publisher     []struct {
				Name string `json:"name"`
			} `json:"publisher"`
		} `json:"value"`
	} `json:"videos"`
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
	}
}

func (p *Provider) Name() string { return "bing" }

func (p *Provider) Enabled() bool { return p.apiKey != "" }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    "bing",
		Label:   "Bing Search",
		Kind:    "web-search",
		Premium: true,
	}
}

func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	if !p.Enabled() {
		return nil
	}
	limit := request.SourceLimit("bing", defaultLimit)
	tasks := make([]domain.FetchTask, 0, len(request.Keywords))
	for _, keyword := range request.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		tasks = append(tasks, domain.FetchTask{
			Provider:   "bing",
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
	limit := task.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("q", task.Keyword)
	query.Set("count", strconv.Itoa(limit))
	query.Set("mkt", "ja-JP")
	query.Set("responseFilter", "Webpages,Videos")
	if fresh := freshness(task.DateFilter); fresh != "" {
		query.Set("freshness", fresh)
	}
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("bing HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode bing payload: %w", err)
	}

	now := time.Now()
	results := make([]domain.Result, 0, limit)
	if task.SearchType != domain.SearchTypeVideo {
		for _, page := range payload.WebPages.Value {
			if len(results) >= limit {
				break
			}
			source := common.HostLabel(page.URL)
			if source == "" {
				source = "Bing"
			}
			results = append(results, domain.Result{
				URL:         page.URL,
				Title:       page.Name,
				Summary:     page.Snippet,
				Source:      source,
				PublishedAt: common.ParsePublished(page.DateLastCrawled, now),
				ContentType: common.ClassifyURL(page.URL),
			})
		}
	}
	for _, video := range payload.Videos.Value {
		if len(results) >= limit {
			break
		}
		source := "Bing Videos"
		if len(video.Publisher) > 0 && video.Publisher[0].Name != "" {
			source = video.Publisher[0].Name
		}
		results = append(results, domain.Result{
			URL:          video.ContentURL,
			Title:        video.Name,
			Summary:      video.Description,
			ThumbnailURL: video.ThumbnailURL,
			Source:       source,
			PublishedAt:  common.ParsePublished(video.DatePublished, now),
			ContentType:  domain.ContentTypeVideo,
		})
	}
	return results, nil
}

func freshness(filter domain.DateFilter) string {
	switch filter {
	case domain.DateFilterDay:
		return "Day"
	case domain.DateFilter3Days, domain.DateFilterWeek:
		return "Week"
	case domain.DateFilterMonth:
		return "Month"
	default:
		return ""
	}
}
