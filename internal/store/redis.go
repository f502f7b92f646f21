package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"curatordash/searchservice/internal/domain"
)

const (
	redisTabsPrefix     = "curator:tabs:"
	redisArticlesPrefix = "curator:articles:"
)

// RedisStore persists tabs and articles in Redis hashes with JSON
// serialization: one hash per user keyed by tab id, one hash per tab keyed
// by article URL. The URL keying makes AddArticles dedup a hash lookup.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetTabs(ctx context.Context, userID string) ([]domain.Tab, error) {
	entries, err := s.client.HGetAll(ctx, redisTabsPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("load tabs: %w", err)
	}
	tabs := make([]domain.Tab, 0, len(entries))
	for _, raw := range entries {
		var tab domain.Tab
		if err := json.Unmarshal([]byte(raw), &tab); err != nil {
			return nil, fmt.Errorf("decode tab: %w", err)
		}
		tabs = append(tabs, tab)
	}
	sort.Slice(tabs, func(i, j int) bool {
		return tabs[i].CreatedAt.Before(tabs[j].CreatedAt)
	})
	return tabs, nil
}

func (s *RedisStore) GetTab(ctx context.Context, userID, tabID string) (domain.Tab, error) {
	raw, err := s.client.HGet(ctx, redisTabsPrefix+userID, tabID).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.Tab{}, ErrTabNotFound
		}
		return domain.Tab{}, fmt.Errorf("load tab: %w", err)
	}
	var tab domain.Tab
	if err := json.Unmarshal([]byte(raw), &tab); err != nil {
		return domain.Tab{}, fmt.Errorf("decode tab: %w", err)
	}
	return tab, nil
}

func (s *RedisStore) SaveTab(ctx context.Context, tab domain.Tab) error {
	data, err := json.Marshal(tab)
	if err != nil {
		return fmt.Errorf("encode tab: %w", err)
	}
	return s.client.HSet(ctx, redisTabsPrefix+tab.UserID, tab.ID, data).Err()
}

func (s *RedisStore) DeleteTab(ctx context.Context, userID, tabID string) error {
	removed, err := s.client.HDel(ctx, redisTabsPrefix+userID, tabID).Result()
	if err != nil {
		return fmt.Errorf("delete tab: %w", err)
	}
	if removed == 0 {
		return ErrTabNotFound
	}
	return s.client.Del(ctx, redisArticlesPrefix+tabID).Err()
}

func (s *RedisStore) GetArticles(ctx context.Context, tabID string) ([]domain.Article, error) {
	entries, err := s.client.HGetAll(ctx, redisArticlesPrefix+tabID).Result()
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	articles := make([]domain.Article, 0, len(entries))
	for _, raw := range entries {
		var article domain.Article
		if err := json.Unmarshal([]byte(raw), &article); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
		articles = append(articles, article)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

func (s *RedisStore) AddArticles(ctx context.Context, tabID string, articles []domain.Article) ([]domain.Article, error) {
	key := redisArticlesPrefix + tabID
	added := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		url := strings.TrimSpace(article.URL)
		if url == "" {
			continue
		}
		if article.ID == "" {
			article.ID = uuid.NewString()
		}
		article.TabID = tabID
		data, err := json.Marshal(article)
		if err != nil {
			return nil, fmt.Errorf("encode article: %w", err)
		}
		stored, err := s.client.HSetNX(ctx, key, url, data).Result()
		if err != nil {
			return nil, fmt.Errorf("store article: %w", err)
		}
		if stored {
			added = append(added, article)
		}
	}
	return added, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
