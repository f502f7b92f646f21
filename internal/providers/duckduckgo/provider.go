package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curatordash/searchservice/internal/domain"
)

const (
	defaultEndpoint  = "https://api.duckduckgo.com/"
	defaultUserAgent = "curator-search/1.0"

	// The instant-answer API is an unauthenticated courtesy endpoint;
	// keep outbound volume down by querying the first few keywords only.
	maxKeywords      = 3
	maxRelatedTopics = 10
)

type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

// Provider queries the DuckDuckGo Instant Answer API. One request per
// keyword, bounded to the first three keywords of the request.
type Provider struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

type instantAnswer struct {
	Abstract       string         `json:"Abstract"`
	AbstractURL    string         `json:"AbstractURL"`
	AbstractSource string         `json:"AbstractSource"`
	Heading        string         `json:"Heading"`
	Image          string         `json:"Image"`
	RelatedTopics  []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	FirstURL string `json:"FirstURL"`
	Text     string `json:"Text"`
	Icon     struct {
		URL string `json:"URL"`
	} `json:"Icon"`
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
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Provider{client: client, endpoint: endpoint, userAgent: userAgent}
}

func (p *Provider) Name() string { return "duckduckgo" }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:  "duckduckgo",
		Label: "DuckDuckGo",
		Kind:  "instant-answer",
	}
}

func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	keywords := make([]string, 0, maxKeywords)
	for _, keyword := range request.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		keywords = append(keywords, keyword)
		if len(keywords) >= maxKeywords {
			break
		}
	}
	if len(keywords) == 0 {
		// Trending path: no keywords means a generic technology query.
		keywords = []string{"technology news"}
	}

	tasks := make([]domain.FetchTask, 0, len(keywords))
	for _, keyword := range keywords {
		tasks = append(tasks, domain.FetchTask{
			Provider: "duckduckgo",
			Keyword:  keyword,
		})
	}
	return tasks
}

func (p *Provider) Fetch(ctx context.Context, task domain.FetchTask) ([]domain.Result, error) {
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("q", task.Keyword)
	query.Set("format", "json")
	query.Set("no_html", "1")
	query.Set("skip_disambig", "1")
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("duckduckgo HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload instantAnswer
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2*1024*1024)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode duckduckgo payload: %w", err)
	}

	now := time.Now().UTC()
	results := make([]domain.Result, 0, 1+maxRelatedTopics)

	if payload.Abstract != "" && payload.AbstractURL != "" {
		title := payload.Heading
		if title == "" {
			title = task.Keyword
		}
		source := payload.AbstractSource
		if source == "" {
			source = "DuckDuckGo"
		}
		results = append(results, domain.Result{
			URL:          payload.AbstractURL,
			Title:        title,
			Summary:      payload.Abstract,
			ThumbnailURL: payload.Image,
			Source:       source,
			PublishedAt:  now,
			ContentType:  domain.ContentTypeArticle,
		})
	}

	// Only the first ten related topics are considered, whether or not an
	// abstract was present; invalid entries inside that window are skipped
	// without pulling in later topics.
	topics := payload.RelatedTopics
	if len(topics) > maxRelatedTopics {
		topics = topics[:maxRelatedTopics]
	}
	for _, topic := range topics {
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		title := topic.Text
		if idx := strings.Index(title, " - "); idx > 0 {
			title = title[:idx]
		}
		results = append(results, domain.Result{
			URL:          topic.FirstURL,
			Title:        title,
			Summary:      topic.Text,
			ThumbnailURL: topic.Icon.URL,
			Source:       "DuckDuckGo",
			PublishedAt:  now,
			ContentType:  domain.ContentTypeArticle,
		})
	}

	return results, nil
}
