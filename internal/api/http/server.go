package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"curatordash/searchservice/internal/auth"
	"curatordash/searchservice/internal/domain"
	"curatordash/searchservice/internal/metrics"
	"curatordash/searchservice/internal/search"
	"curatordash/searchservice/internal/store"
)

const maxKeywordLength = 200

type SearchService interface {
	Search(ctx context.Context, request domain.SearchRequest) (domain.SearchResponse, error)
	Providers() []domain.ProviderInfo
}

type UnifiedSearchService interface {
	Search(ctx context.Context, request domain.SearchRequest, usePremium bool) (domain.SearchResponse, error)
	AvailableAPIs() map[string]bool
}

type Server struct {
	free         SearchService
	premium      SearchService
	unified      UnifiedSearchService
	store        store.Store
	auth         *auth.Authenticator
	logger       *slog.Logger
	storeBackend string
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuthenticator(authenticator *auth.Authenticator) ServerOption {
	return func(s *Server) {
		if authenticator != nil {
			s.auth = authenticator
		}
	}
}

// WithStoreBackend names the storage backend for metrics labels.
func WithStoreBackend(name string) ServerOption {
	return func(s *Server) {
		if name != "" {
			s.storeBackend = name
		}
	}
}

func NewServer(free, premium SearchService, unified UnifiedSearchService, st store.Store, options ...ServerOption) *Server {
	server := &Server{
		free:         free,
		premium:      premium,
		unified:      unified,
		store:        st,
		auth:         auth.New(""),
		logger:       slog.Default(),
		storeBackend: "memory",
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	return server
}

type contextKey string

const userIDKey contextKey = "userID"

func userID(r *http.Request) string {
	if value, ok := r.Context().Value(userIDKey).(string); ok && value != "" {
		return value
	}
	return auth.DefaultUserID
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.auth.Authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, user)))
	})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("POST /api/search/free", s.handleSearchFree)
	mux.HandleFunc("POST /api/search/premium", s.handleSearchPremium)
	mux.HandleFunc("POST /api/search", s.handleSearchUnified)
	mux.HandleFunc("GET /api/tabs", s.handleListTabs)
	mux.HandleFunc("POST /api/tabs", s.handleCreateTab)
	mux.HandleFunc("GET /api/tabs/{tabId}", s.handleGetTab)
	mux.HandleFunc("PUT /api/tabs/{tabId}", s.handleUpdateTab)
	mux.HandleFunc("DELETE /api/tabs/{tabId}", s.handleDeleteTab)
	mux.HandleFunc("POST /api/tabs/{tabId}/fetch", s.handleFetchTab)
	mux.HandleFunc("GET /api/tabs/{tabId}/articles", s.handleTabArticles)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "curator-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(s.authMiddleware(traced))))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			storeStatus = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"store":     storeStatus,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	apis := s.unified.AvailableAPIs()
	writeJSON(w, http.StatusOK, map[string]any{
		"hasGoogleAPI":     apis["google"],
		"hasBingAPI":       apis["bing"],
		"hasYouTubeAPI":    apis["youtube"],
		"availableAPIs":    apis,
		"freeProviders":    s.free.Providers(),
		"premiumProviders": s.premium.Providers(),
		"authRequired":     !s.auth.Open(),
	})
}

func (s *Server) handleSearchFree(w http.ResponseWriter, r *http.Request) {
	request, ok := s.decodeSearchRequest(w, r)
	if !ok {
		return
	}
	response, err := s.free.Search(r.Context(), request)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSearchPremium(w http.ResponseWriter, r *http.Request) {
	request, ok := s.decodeSearchRequest(w, r)
	if !ok {
		return
	}
	// The premium endpoint degrades to free providers rather than failing
	// when no API credentials are configured.
	response, err := s.unified.Search(r.Context(), request, true)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

type unifiedSearchRequest struct {
	domain.SearchRequest
	UsePremium bool `json:"usePremiumAPIs"`
}

func (s *Server) handleSearchUnified(w http.ResponseWriter, r *http.Request) {
	var payload unifiedSearchRequest
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := validateSearchRequest(payload.SearchRequest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	response, err := s.unified.Search(r.Context(), payload.SearchRequest, payload.UsePremium)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) decodeSearchRequest(w http.ResponseWriter, r *http.Request) (domain.SearchRequest, bool) {
	var request domain.SearchRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return domain.SearchRequest{}, false
	}
	if err := validateSearchRequest(request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return domain.SearchRequest{}, false
	}
	return request, true
}

func validateSearchRequest(request domain.SearchRequest) error {
	hasKeyword := false
	for _, keyword := range request.Keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxKeywordLength {
			return fmt.Errorf("keyword too long (max %d characters)", maxKeywordLength)
		}
		hasKeyword = true
	}
	if !hasKeyword {
		return search.ErrNoKeywords
	}
	return nil
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("search request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	switch {
	case errors.Is(err, search.ErrNoKeywords):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, search.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, search.ErrNoProviders):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
	}
}

type tabPayload struct {
	Name            string         `json:"name"`
	Keywords        []string       `json:"keywords"`
	ExcludeKeywords []string       `json:"excludeKeywords"`
	Operator        string         `json:"searchOperator"`
	Sources         []string       `json:"searchSources"`
	SourceLimits    map[string]int `json:"sourceLimits"`
	CustomFeedURLs  []string       `json:"customRssFeeds"`
	DateFilter      string         `json:"dateFilter"`
	UsePremium      bool           `json:"usePremiumAPIs"`
}

func (p tabPayload) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	hasKeyword := false
	for _, keyword := range p.Keywords {
		if strings.TrimSpace(keyword) != "" {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return errors.New("at least one keyword is required")
	}
	return nil
}

func (p tabPayload) apply(tab domain.Tab) domain.Tab {
	tab.Name = strings.TrimSpace(p.Name)
	tab.Keywords = trimAll(p.Keywords)
	tab.ExcludeKeywords = trimAll(p.ExcludeKeywords)
	tab.Operator = domain.NormalizeOperator(p.Operator)
	tab.Sources = trimAll(p.Sources)
	tab.SourceLimits = p.SourceLimits
	tab.CustomFeedURLs = trimAll(p.CustomFeedURLs)
	tab.DateFilter = domain.NormalizeDateFilter(p.DateFilter)
	tab.UsePremium = p.UsePremium
	return tab
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.store.GetTabs(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tabs": tabs})
}

func (s *Server) handleCreateTab(w http.ResponseWriter, r *http.Request) {
	var payload tabPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := payload.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	now := time.Now().UTC()
	tab := payload.apply(domain.Tab{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := s.store.SaveTab(r.Context(), tab); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tab)
}

func (s *Server) handleGetTab(w http.ResponseWriter, r *http.Request) {
	tab, err := s.store.GetTab(r.Context(), userID(r), r.PathValue("tabId"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

func (s *Server) handleUpdateTab(w http.ResponseWriter, r *http.Request) {
	tab, err := s.store.GetTab(r.Context(), userID(r), r.PathValue("tabId"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var payload tabPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := payload.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	tab = payload.apply(tab)
	tab.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveTab(r.Context(), tab); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

func (s *Server) handleDeleteTab(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTab(r.Context(), userID(r), r.PathValue("tabId")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleFetchTab runs the tab's configured search and stores new articles.
func (s *Server) handleFetchTab(w http.ResponseWriter, r *http.Request) {
	tab, err := s.store.GetTab(r.Context(), userID(r), r.PathValue("tabId"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	response, err := s.unified.Search(r.Context(), tab.SearchRequest(), tab.UsePremium)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	fetchedAt := time.Now().UTC()
	articles := make([]domain.Article, 0, len(response.Results))
	for _, result := range response.Results {
		articles = append(articles, domain.Article{
			URL:          result.URL,
			Title:        result.Title,
			Summary:      result.Summary,
			ThumbnailURL: result.ThumbnailURL,
			Source:       result.Source,
			ContentType:  result.ContentType,
			PublishedAt:  result.PublishedAt,
			FetchedAt:    fetchedAt,
		})
	}

	added, err := s.store.AddArticles(r.Context(), tab.ID, articles)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	metrics.ArticlesStoredTotal.WithLabelValues(s.storeBackend).Add(float64(len(added)))

	s.logger.Info("tab fetch complete",
		slog.String("tabId", tab.ID),
		slog.Int("found", len(response.Results)),
		slog.Int("added", len(added)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"totalFound":  len(response.Results),
		"newArticles": len(added),
		"articles":    added,
		"metadata":    response.Metadata,
	})
}

func (s *Server) handleTabArticles(w http.ResponseWriter, r *http.Request) {
	// Ownership check before touching articles: tab ids are random but the
	// article keyspace is flat.
	tab, err := s.store.GetTab(r.Context(), userID(r), r.PathValue("tabId"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	articles, err := s.store.GetArticles(r.Context(), tab.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tabId":    tab.ID,
		"articles": articles,
		"count":    len(articles),
	})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrTabNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "tab not found")
		return
	}
	s.logger.Error("store operation failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal_error", "storage failure")
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
