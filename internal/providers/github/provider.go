package github

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
	defaultEndpoint  = "https://api.github.com/search/repositories"
	defaultUserAgent = "curator-search/1.0"
	defaultLimit     = 30
	maxPerPage       = 100
)

type Config struct {
	Endpoint  string
	UserAgent string
	Token     string
	Client    *http.Client
}

// Provider searches GitHub repositories, one request per keyword, sorted by
// stars descending. Works unauthenticated (60 req/h); a token raises the
// quota when configured.
type Provider struct {
	client    *http.Client
	endpoint  string
	userAgent string
	token     string
}

type searchResponse struct {
	Items []repoItem `json:"items"`
}

type repoItem struct {
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updated_at"`
	Owner       struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
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
	return &Provider{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		token:     strings.TrimSpace(cfg.Token),
	}
}

func (p *Provider) Name() string { return "github" }

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:  "github",
		Label: "GitHub",
		Kind:  "repository",
	}
}

func (p *Provider) Plan(request domain.SearchRequest) []domain.FetchTask {
	limit := request.SourceLimit("github", defaultLimit)
	tasks := make([]domain.FetchTask, 0, len(request.Keywords))
	for _, keyword := range request.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		tasks = append(tasks, domain.FetchTask{
			Provider: "github",
			Keyword:  keyword,
			Limit:    limit,
		})
	}
	return tasks
}

func (p *Provider) Fetch(ctx context.Context, task domain.FetchTask) ([]domain.Result, error) {
	uri, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	perPage := task.Limit
	if perPage <= 0 {
		perPage = defaultLimit
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	query := uri.Query()
	query.Set("q", task.Keyword)
	query.Set("sort", "stars")
	query.Set("order", "desc")
	query.Set("per_page", strconv.Itoa(perPage))
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", p.userAgent)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("github HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024*1024)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode github payload: %w", err)
	}

	now := time.Now()
	results := make([]domain.Result, 0, len(payload.Items))
	for _, repo := range payload.Items {
		if strings.TrimSpace(repo.HTMLURL) == "" {
			continue
		}
		summary := strings.TrimSpace(repo.Description)
		if summary == "" {
			summary = "GitHub repository for " + task.Keyword
		}
		results = append(results, domain.Result{
			URL:          repo.HTMLURL,
			Title:        repo.Name + " - " + repo.Owner.Login,
			Summary:      summary,
			ThumbnailURL: repo.Owner.AvatarURL,
			Source:       "GitHub",
			PublishedAt:  common.ParsePublished(repo.UpdatedAt, now),
			ContentType:  domain.ContentTypeArticle,
		})
		if len(results) >= perPage {
			break
		}
	}
	return results, nil
}
