package common

import (
	"net/url"
	"regexp"
	"strings"

	"curatordash/searchservice/internal/domain"
)

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com"}

var articleHosts = []string{"qiita.com", "zenn.dev", "dev.to", "medium.com"}

var newsMarkers = []string{"news", "itmedia", "techcrunch", "publickey"}

var blogMarkers = []string{"blog", "note.com", "hatena"}

// ClassifyURL maps a result URL onto a content type by inspecting hostname
// and path markers. Unknown URLs are plain websites.
func ClassifyURL(rawURL string) domain.ContentType {
	lowered := strings.ToLower(strings.TrimSpace(rawURL))
	if lowered == "" {
		return domain.ContentTypeWebsite
	}
	for _, host := range videoHosts {
		if strings.Contains(lowered, host) {
			return domain.ContentTypeVideo
		}
	}
	for _, host := range articleHosts {
		if strings.Contains(lowered, host) {
			return domain.ContentTypeArticle
		}
	}
	for _, marker := range newsMarkers {
		if strings.Contains(lowered, marker) {
			return domain.ContentTypeNews
		}
	}
	for _, marker := range blogMarkers {
		if strings.Contains(lowered, marker) {
			return domain.ContentTypeBlog
		}
	}
	return domain.ContentTypeWebsite
}

var youtubeVideoID = regexp.MustCompile(`[?&]v=([^&]+)`)

// YouTubeThumbnail builds the predictable thumbnail URL for a YouTube watch
// link, or returns "" when the video id cannot be extracted.
func YouTubeThumbnail(rawURL string) string {
	lowered := strings.ToLower(rawURL)
	if !strings.Contains(lowered, "youtube.com") {
		return ""
	}
	match := youtubeVideoID.FindStringSubmatch(rawURL)
	if len(match) < 2 {
		return ""
	}
	return "https://img.youtube.com/vi/" + match[1] + "/maxresdefault.jpg"
}

// HostLabel derives a short source label from a URL's hostname.
func HostLabel(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
