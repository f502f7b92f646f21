package youtube

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curatordash/searchservice/internal/domain"
)

func TestEnabledRequiresKey(t *testing.T) {
	if NewProvider(Config{}).Enabled() {
		t.Error("provider without key should be disabled")
	}
	if !NewProvider(Config{APIKey: "k"}).Enabled() {
		t.Error("provider with key should be enabled")
	}
}

func TestPlanOneTaskPerKeyword(t *testing.T) {
	provider := NewProvider(Config{APIKey: "k"})
	tasks := provider.Plan(domain.SearchRequest{
		Keywords:   []string{"go concurrency", "generics"},
		DateFilter: domain.DateFilterWeek,
	})
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].DateFilter != domain.DateFilterWeek {
		t.Errorf("DateFilter = %q", tasks[0].DateFilter)
	}
}

func TestFetchMapsVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		if got := values.Get("type"); got != "video" {
			t.Errorf("type = %q", got)
		}
		if got := values.Get("part"); got != "snippet" {
			t.Errorf("part = %q", got)
		}
		if got := values.Get("publishedAfter"); got == "" {
			t.Error("expected publishedAfter for week filter")
		}
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"abc123"},"snippet":{"title":"Go talk","description":"d","channelTitle":"GopherCon","publishedAt":"2026-08-25T12:00:00Z","thumbnails":{"high":{"url":"https://i.ytimg.com/hi.jpg"},"default":{"url":"https://i.ytimg.com/def.jpg"}}}},
			{"id":{"videoId":""},"snippet":{"title":"broken"}},
			{"id":{"videoId":"def456"},"snippet":{"title":"No high thumb","publishedAt":"2026-08-24T12:00:00Z","thumbnails":{"default":{"url":"https://i.ytimg.com/def2.jpg"}}}}
		]}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "k", Endpoint: server.URL})
	results, err := provider.Fetch(context.Background(), domain.FetchTask{
		Keyword:    "golang",
		Limit:      10,
		DateFilter: domain.DateFilterWeek,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (missing videoId dropped), got %d", len(results))
	}
	first := results[0]
	if first.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.ContentType != domain.ContentTypeVideo {
		t.Errorf("ContentType = %q", first.ContentType)
	}
	if first.Source != "GopherCon" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.ThumbnailURL != "https://i.ytimg.com/hi.jpg" {
		t.Errorf("ThumbnailURL = %q", first.ThumbnailURL)
	}
	if results[1].ThumbnailURL != "https://i.ytimg.com/def2.jpg" {
		t.Errorf("default thumbnail fallback, got %q", results[1].ThumbnailURL)
	}
}

func TestFetchForbiddenHintsAtAPIEnablement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"YouTube Data API v3 has not been used"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	provider := NewProvider(Config{APIKey: "k", Endpoint: server.URL, Logger: logger})
	if _, err := provider.Fetch(context.Background(), domain.FetchTask{Keyword: "x"}); err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(buf.String(), "YouTube Data API") {
		t.Errorf("expected enablement hint in log, got %q", buf.String())
	}
}
