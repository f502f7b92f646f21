package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"curatordash/searchservice/internal/domain"
)

// MemoryStore keeps tabs and articles in process memory. It is the default
// backend for single-instance deployments and for tests; contents are lost
// on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	tabs     map[string]map[string]domain.Tab
	articles map[string][]domain.Article
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tabs:     make(map[string]map[string]domain.Tab),
		articles: make(map[string][]domain.Article),
	}
}

func (s *MemoryStore) GetTabs(ctx context.Context, userID string) ([]domain.Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userTabs := s.tabs[userID]
	tabs := make([]domain.Tab, 0, len(userTabs))
	for _, tab := range userTabs {
		tabs = append(tabs, tab)
	}
	sort.Slice(tabs, func(i, j int) bool {
		return tabs[i].CreatedAt.Before(tabs[j].CreatedAt)
	})
	return tabs, nil
}

func (s *MemoryStore) GetTab(ctx context.Context, userID, tabID string) (domain.Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tab, ok := s.tabs[userID][tabID]
	if !ok {
		return domain.Tab{}, ErrTabNotFound
	}
	return tab, nil
}

func (s *MemoryStore) SaveTab(ctx context.Context, tab domain.Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userTabs, ok := s.tabs[tab.UserID]
	if !ok {
		userTabs = make(map[string]domain.Tab)
		s.tabs[tab.UserID] = userTabs
	}
	userTabs[tab.ID] = tab
	return nil
}

func (s *MemoryStore) DeleteTab(ctx context.Context, userID, tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[userID][tabID]; !ok {
		return ErrTabNotFound
	}
	delete(s.tabs[userID], tabID)
	delete(s.articles, tabID)
	return nil
}

func (s *MemoryStore) GetArticles(ctx context.Context, tabID string) ([]domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.articles[tabID]
	articles := make([]domain.Article, len(stored))
	copy(articles, stored)
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

func (s *MemoryStore) AddArticles(ctx context.Context, tabID string, articles []domain.Article) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{}, len(s.articles[tabID]))
	for _, article := range s.articles[tabID] {
		existing[article.URL] = struct{}{}
	}

	added := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		url := strings.TrimSpace(article.URL)
		if url == "" {
			continue
		}
		if _, dup := existing[url]; dup {
			continue
		}
		existing[url] = struct{}{}
		if article.ID == "" {
			article.ID = uuid.NewString()
		}
		article.TabID = tabID
		s.articles[tabID] = append(s.articles[tabID], article)
		added = append(added, article)
	}
	return added, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
