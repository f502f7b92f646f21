package store

import (
	"context"
	"errors"

	"curatordash/searchservice/internal/domain"
)

var ErrTabNotFound = errors.New("tab not found")

// Store persists tab configurations and the articles collected for them.
// AddArticles deduplicates by URL against what the tab already holds and
// returns only the newly stored articles.
type Store interface {
	GetTabs(ctx context.Context, userID string) ([]domain.Tab, error)
	GetTab(ctx context.Context, userID, tabID string) (domain.Tab, error)
	SaveTab(ctx context.Context, tab domain.Tab) error
	DeleteTab(ctx context.Context, userID, tabID string) error
	GetArticles(ctx context.Context, tabID string) ([]domain.Article, error)
	AddArticles(ctx context.Context, tabID string, articles []domain.Article) ([]domain.Article, error)
	Ping(ctx context.Context) error
}
