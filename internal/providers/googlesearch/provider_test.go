package googlesearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"curatordash/searchservice/internal/domain"
)

func TestEnabledRequiresKeyAndEngineID(t *testing.T) {
	cases := []struct {
		key, cx string
		want    bool
	}{
		{"", "", false},
		{"k", "", false},
		{"", "cx", false},
		{"k", "cx", true},
	}
	for _, tc := range cases {
		provider := NewProvider(Config{APIKey: tc.key, EngineID: tc.cx})
		if got := provider.Enabled(); got != tc.want {
			t.Errorf("Enabled(key=%q cx=%q) = %v, want %v", tc.key, tc.cx, got, tc.want)
		}
	}
}

func TestPlanEmptyWhenDisabled(t *testing.T) {
	provider := NewProvider(Config{})
	if tasks := provider.Plan(domain.SearchRequest{Keywords: []string{"go"}}); len(tasks) != 0 {
		t.Fatalf("disabled provider planned %d tasks", len(tasks))
	}
}

func TestFetchPaginatesUntilLimit(t *testing.T) {
	var starts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		offset, _ := strconv.Atoi(start)
		var items []string
		for i := 0; i < 10; i++ {
			items = append(items, fmt.Sprintf(`{"title":"r%d","link":"https://news.example.com/%d","snippet":"s"}`, offset+i, offset+i))
		}
		w.Write([]byte(`{"items":[` + strings.Join(items, ",") + `]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", EngineID: "cx", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{Keyword: "ai", Limit: 25})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 25 {
		t.Fatalf("expected 25 results, got %d", len(results))
	}
	if len(starts) != 3 || starts[0] != "1" || starts[1] != "11" || starts[2] != "21" {
		t.Fatalf("unexpected pagination starts: %v", starts)
	}
}

func TestFetchStopsAtThreePages(t *testing.T) {
	var pages int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		var items []string
		for i := 0; i < 10; i++ {
			items = append(items, fmt.Sprintf(`{"title":"r","link":"https://example.com/%d/%d","snippet":"s"}`, pages, i))
		}
		w.Write([]byte(`{"items":[` + strings.Join(items, ",") + `]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", EngineID: "cx", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{Keyword: "ai", Limit: 100})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages, got %d", pages)
	}
	if len(results) != 30 {
		t.Fatalf("expected 30 results, got %d", len(results))
	}
}

func TestFetchStopsAfterShortPage(t *testing.T) {
	var pages int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Write([]byte(`{"items":[
			{"title":"a","link":"https://example.com/a","snippet":"s"},
			{"title":"b","link":"https://example.com/b","snippet":"s"}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", EngineID: "cx", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{Keyword: "ai", Limit: 25})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pages != 1 {
		t.Fatalf("short page should end pagination, got %d requests", pages)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestFetchVideoSearchAppendsSiteFilter(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items":[{"title":"clip","link":"https://www.youtube.com/watch?v=abc123","snippet":"s"}]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", EngineID: "cx", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{
		Keyword:    "ai",
		Limit:      5,
		SearchType: domain.SearchTypeVideo,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(gotQuery, "site:youtube.com OR site:vimeo.com OR site:dailymotion.com") {
		t.Errorf("video query missing site filter: %q", gotQuery)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ContentType != domain.ContentTypeVideo {
		t.Errorf("ContentType = %q", results[0].ContentType)
	}
	if results[0].ThumbnailURL != "https://img.youtube.com/vi/abc123/maxresdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", results[0].ThumbnailURL)
	}
}

func TestFetchPagemapMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dateRestrict"); got != "w1" {
			t.Errorf("dateRestrict = %q", got)
		}
		w.Write([]byte(`{"items":[{
			"title":"post","link":"https://blog.example.com/post","snippet":"s",
			"pagemap":{"metatags":[{"og:image":"https://blog.example.com/og.png","article:published_time":"2026-08-20T09:00:00Z"}]}
		}]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", EngineID: "cx", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{
		Keyword:    "go",
		Limit:      5,
		DateFilter: domain.DateFilterWeek,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := results[0]
	if got.ThumbnailURL != "https://blog.example.com/og.png" {
		t.Errorf("ThumbnailURL = %q", got.ThumbnailURL)
	}
	if got.PublishedAt.Format("2006-01-02") != "2026-08-20" {
		t.Errorf("PublishedAt = %v", got.PublishedAt)
	}
	if got.ContentType != domain.ContentTypeBlog {
		t.Errorf("ContentType = %q", got.ContentType)
	}
}

func TestDateRestrict(t *testing.T) {
	cases := map[domain.DateFilter]string{
		domain.DateFilterDay:   "d1",
		domain.DateFilter3Days: "d3",
		domain.DateFilterWeek:  "w1",
		domain.DateFilterMonth: "m1",
		domain.DateFilterAll:   "",
	}
	for filter, want := range cases {
		if got := dateRestrict(filter); got != want {
			t.Errorf("dateRestrict(%q) = %q, want %q", filter, got, want)
		}
	}
}
