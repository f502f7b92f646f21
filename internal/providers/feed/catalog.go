package feed

import (
	"net/http"

	"curatordash/searchservice/internal/domain"
)

// Built-in tech feed catalog. Feed URLs match what the dashboard subscribes
// to out of the box; each entry becomes its own selectable provider.
const (
	qiitaTrendingFeed = "https://qiita.com/popular-items/feed"
	zennTrendingFeed  = "https://zenn.dev/feed"
	hatenaITFeed      = "https://b.hatena.ne.jp/hotentry/it.rss"
	hatenaGeneralFeed = "https://b.hatena.ne.jp/hotentry.rss"
	itmediaNewsFeed   = "https://rss.itmedia.co.jp/rss/2.0/news_bursts.xml"
	itmediaAIPlusFeed = "https://rss.itmedia.co.jp/rss/2.0/aiplus.xml"
	publickeyAtomFeed = "https://www.publickey1.jp/atom.xml"
)

type CatalogConfig struct {
	UserAgent string
	Client    *http.Client
}

// Catalog returns the built-in feed providers plus the custom-feed adapter.
func Catalog(cfg CatalogConfig) []*Provider {
	return []*Provider{
		NewProvider(Config{
			Name:        "qiita",
			Label:       "Qiita",
			ContentType: domain.ContentTypeArticle,
			FeedURLs:    []string{qiitaTrendingFeed},
			Limit:       50,
			UserAgent:   cfg.UserAgent,
			Client:      cfg.Client,
		}),
		NewProvider(Config{
			Name:        "zenn",
			Label:       "Zenn",
			ContentType: domain.ContentTypeArticle,
			FeedURLs:    []string{zennTrendingFeed},
			Limit:       50,
			UserAgent:   cfg.UserAgent,
			Client:      cfg.Client,
		}),
		NewProvider(Config{
			Name:        "hatena",
			Label:       "はてな",
			ContentType: domain.ContentTypeBlog,
			FeedURLs:    []string{hatenaITFeed, hatenaGeneralFeed},
			Limit:       50,
			UserAgent:   cfg.UserAgent,
			Client:      cfg.Client,
		}),
		NewProvider(Config{
			Name:        "itmedia",
			Label:       "ITmedia",
			ContentType: domain.ContentTypeNews,
			FeedURLs:    []string{itmediaNewsFeed, itmediaAIPlusFeed},
			Limit:       30,
			UserAgent:   cfg.UserAgent,
			Client:      cfg.Client,
		}),
		NewProvider(Config{
			Name:        "publickey",
			Label:       "Publickey",
			ContentType: domain.ContentTypeNews,
			FeedURLs:    []string{publickeyAtomFeed},
			Limit:       30,
			UserAgent:   cfg.UserAgent,
			Client:      cfg.Client,
		}),
		NewCustom(Config{
			Limit:     20,
			UserAgent: cfg.UserAgent,
			Client:    cfg.Client,
		}),
	}
}
