package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curatordash/searchservice/internal/auth"
	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/search"
	"curatordash/searchservice/internal/store"
)

type fakeSearch struct {
	response domain.SearchResponse
	err      error
	lastReq  domain.SearchRequest
}

func (f *fakeSearch) Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error) {
	f.lastReq = request
	if f.err != nil {
		return domain.SearchResponse{}, f.err
	}
	return f.response, nil
}

func (f *fakeSearch) Providers() []domain.ProviderInfo {
	return []domain.ProviderInfo{{Name: "fake", Label: "Fake"}}
}

type fakeUnified struct {
	response    domain.SearchResponse
	err         error
	lastPremium bool
	calls       int
}

func (f *fakeUnified) Search(ctx context.Context, request domain.SearchRequest, usePremium bool) (domain.SearchResponse, error) {
	f.calls++
	f.lastPremium = usePremium
	if f.err != nil {
		return domain.SearchResponse{}, f.err
	}
	return f.response, nil
}

func (f *fakeUnified) AvailableAPIs() map[string]bool {
	return map[string]bool{"google": true, "bing": false}
}

func okResponse(urls ...string) domain.SearchResponse {
	results := make([]domain.Result, 0, len(urls))
	for _, url := range urls {
		results = append(results, domain.Result{
			URL:         url,
			Title:       "result " + url,
			Source:      "test",
			PublishedAt: time.Now(),
			ContentType: domain.ContentTypeArticle,
		})
	}
	return domain.SearchResponse{
		Success: true,
		Results: results,
		Count:   len(results),
		Source:  "free",
	}
}

func newTestServer(t *testing.T, options ...ServerOption) (*Server, *fakeSearch, *fakeUnified) {
	t.Helper()
	free := &fakeSearch{response: okResponse("https://example.com/a")}
	unified := &fakeUnified{response: okResponse("https://example.com/a", "https://example.com/b")}
	server := NewServer(free, &fakeSearch{}, unified, store.NewMemoryStore(), options...)
	return server, free, unified
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "ok" || payload["store"] != "ok" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFreeSearchNestedDateRange(t *testing.T) {
	server, free, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/api/search/free", map[string]any{
		"keywords": []string{"go"},
		"filters":  map[string]any{"dateRange": "24h"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if free.lastReq.Filters == nil || free.lastReq.Filters.DateRange != "24h" {
		t.Fatalf("nested filters not decoded: %+v", free.lastReq.Filters)
	}
	if free.lastReq.EffectiveDateFilter() != domain.DateFilterDay {
		t.Errorf("effective filter = %q", free.lastReq.EffectiveDateFilter())
	}
}

func TestFreeSearchRequiresKeywords(t *testing.T) {
	server, _, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/api/search/free", map[string]any{
		"keywords": []string{"  "},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestFreeSearch(t *testing.T) {
	server, free, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/api/search/free", map[string]any{
		"keywords":       []string{"golang"},
		"searchOperator": "AND",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if free.lastReq.Operator != domain.SearchOperatorAnd {
		t.Errorf("operator not passed through: %q", free.lastReq.Operator)
	}
	var response domain.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !response.Success || response.Count != 1 {
		t.Errorf("response = %+v", response)
	}
}

func TestSearchErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{search.ErrUnknownProvider, http.StatusBadRequest},
		{search.ErrNoProviders, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		server, free, _ := newTestServer(t)
		free.err = tc.err
		w := doJSON(t, server.Handler(), http.MethodPost, "/api/search/free", map[string]any{
			"keywords": []string{"go"},
		})
		if w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestUnifiedSearchPremiumFlag(t *testing.T) {
	server, _, unified := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/api/search", map[string]any{
		"keywords":       []string{"go"},
		"usePremiumAPIs": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !unified.lastPremium {
		t.Error("usePremiumAPIs flag not passed to the selector")
	}
}

func TestPremiumEndpointRoutesThroughSelector(t *testing.T) {
	server, _, unified := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodPost, "/api/search/premium", map[string]any{
		"keywords": []string{"go"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if unified.calls != 1 || !unified.lastPremium {
		t.Errorf("selector calls=%d premium=%v", unified.calls, unified.lastPremium)
	}
}

func TestConfig(t *testing.T) {
	server, _, _ := newTestServer(t)
	w := doJSON(t, server.Handler(), http.MethodGet, "/api/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var payload struct {
		HasGoogleAPI  bool            `json:"hasGoogleAPI"`
		HasBingAPI    bool            `json:"hasBingAPI"`
		HasYouTubeAPI bool            `json:"hasYouTubeAPI"`
		AvailableAPIs map[string]bool `json:"availableAPIs"`
		AuthRequired  bool            `json:"authRequired"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.HasGoogleAPI || payload.HasBingAPI || payload.HasYouTubeAPI {
		t.Errorf("api probe booleans = %v/%v/%v", payload.HasGoogleAPI, payload.HasBingAPI, payload.HasYouTubeAPI)
	}
	if !payload.AvailableAPIs["google"] || payload.AvailableAPIs["bing"] {
		t.Errorf("availableAPIs = %v", payload.AvailableAPIs)
	}
	if payload.AuthRequired {
		t.Error("open mode should report authRequired=false")
	}
}

func TestTabLifecycleOverHTTP(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler()

	w := doJSON(t, handler, http.MethodPost, "/api/tabs", map[string]any{
		"name":     "Go news",
		"keywords": []string{"golang"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var tab domain.Tab
	if err := json.Unmarshal(w.Body.Bytes(), &tab); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tab.ID == "" || tab.Operator != domain.SearchOperatorOr {
		t.Fatalf("created tab = %+v", tab)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/tabs/"+tab.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = doJSON(t, handler, http.MethodPut, "/api/tabs/"+tab.ID, map[string]any{
		"name":           "Go weekly",
		"keywords":       []string{"golang", "go release"},
		"searchOperator": "AND",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	var updated domain.Tab
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Name != "Go weekly" || updated.Operator != domain.SearchOperatorAnd {
		t.Fatalf("updated tab = %+v", updated)
	}

	w = doJSON(t, handler, http.MethodDelete, "/api/tabs/"+tab.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, handler, http.MethodGet, "/api/tabs/"+tab.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}

func TestCreateTabValidation(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler()

	w := doJSON(t, handler, http.MethodPost, "/api/tabs", map[string]any{
		"keywords": []string{"go"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d", w.Code)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/tabs", map[string]any{
		"name": "empty",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing keywords: status = %d", w.Code)
	}
}

func TestFetchTabStoresNewArticlesOnly(t *testing.T) {
	server, _, unified := newTestServer(t)
	handler := server.Handler()

	w := doJSON(t, handler, http.MethodPost, "/api/tabs", map[string]any{
		"name":           "Go news",
		"keywords":       []string{"golang"},
		"usePremiumAPIs": true,
	})
	var tab domain.Tab
	if err := json.Unmarshal(w.Body.Bytes(), &tab); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/tabs/"+tab.ID+"/fetch", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body %s", w.Code, w.Body.String())
	}
	if !unified.lastPremium {
		t.Error("tab premium preference not forwarded")
	}
	var first struct {
		NewArticles int `json:"newArticles"`
		TotalFound  int `json:"totalFound"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.NewArticles != 2 || first.TotalFound != 2 {
		t.Fatalf("first fetch = %+v", first)
	}

	// Same results again: everything is a duplicate.
	w = doJSON(t, handler, http.MethodPost, "/api/tabs/"+tab.ID+"/fetch", nil)
	var second struct {
		NewArticles int `json:"newArticles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.NewArticles != 0 {
		t.Fatalf("second fetch added %d articles", second.NewArticles)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/tabs/"+tab.ID+"/articles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("articles status = %d", w.Code)
	}
	var stored struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.Count != 2 {
		t.Fatalf("stored count = %d", stored.Count)
	}
}

func TestBearerTokenGuardsAPI(t *testing.T) {
	server, _, _ := newTestServer(t, WithAuthenticator(auth.New("secret")))
	handler := server.Handler()

	w := doJSON(t, handler, http.MethodGet, "/api/tabs", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	// Health stays open for probes.
	w = doJSON(t, handler, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/tabs", nil)
	r.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body %s", rec.Code, rec.Body.String())
	}
}
