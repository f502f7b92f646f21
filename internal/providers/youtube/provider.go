package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/providers/common"
)

const (
	defaultEndpoint = "https://www.googleapis.com/youtube/v3/search"
	defaultLimit    = 20
	maxPageSize     = 50
)

type Config struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

// Provider searches YouTube through the Data API v3. Every result is a
// video regardless of the requested search type.
type Provider struct {
	client   *http.Client
	logger   *slog.Logger
	endpoint string
	apiKey   string
}

type searchPayload struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func NewProvider(cfg Config) *Provider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Provider{
		client:   client,
		logger:   logger,
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
	}
}

func (p *Provider) Name() string { return "youtube" }

func (p *Provider) Enabled() bool { return p.apiKey != "" }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    "youtube",
		Label:   "YouTube",
		Kind:    "video-search",
		Premium: true,
	}
}

func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	if !p.Enabled() {
		return nil
	}
	limit := request.SourceLimit("youtube", defaultLimit)
	tasks := make([]domain.FetchTask, 0, len(request.Keywords))
	for _, keyword := range request.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		tasks = append(tasks, domain.FetchTask{
			Provider:   "youtube",
			Keyword:    keyword,
			Limit:      limit,
			DateFilter: request.DateFilter,
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
	query.Set("key", p.apiKey)
	query.Set("part", "snippet")
	query.Set("type", "video")
	query.Set("q", task.Keyword)
	query.Set("maxResults", strconv.Itoa(limit))
	query.Set("order", "date")
	query.Set("relevanceLanguage", "ja")
	if after := publishedAfter(task.DateFilter); after != "" {
		query.Set("publishedAfter", after)
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
		if resp.StatusCode == http.StatusForbidden {
			// Almost always means the Data API is not enabled for the
			// project the key belongs to, not a bad key.
			p.logger.Warn("youtube search forbidden; check that the YouTube Data API v3 is enabled for this key",
				"status", resp.StatusCode)
		}
		return nil, fmt.Errorf("youtube HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode youtube payload: %w", err)
	}

	now := time.Now()
	results := make([]domain.Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		thumbnail := item.Snippet.Thumbnails.High.URL
		if thumbnail == "" {
			thumbnail = item.Snippet.Thumbnails.Default.URL
		}
		source := item.Snippet.ChannelTitle
		if source == "" {
			source = "YouTube"
		}
		results = append(results, domain.Result{
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Title:        item.Snippet.Title,
			Summary:      item.Snippet.Description,
			ThumbnailURL: thumbnail,
			Source:       source,
			PublishedAt:  common.ParsePublished(item.Snippet.PublishedAt, now),
			ContentType:  domain.ContentTypeVideo,
		})
	}
	return results, nil
}

func publishedAfter(filter domain.DateFilter) string {
	age := filter.MaxAge()
	if age == 0 {
		return ""
	}
	return time.Now().Add(-age).UTC().Format(time.RFC3339)
}
