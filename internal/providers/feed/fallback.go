package feed

import (
	"html"
	"regexp"
	"strings"
)

// Regex-based item extraction for feeds the structured parser cannot read.
// This is a documented degraded mode, not the primary path: it only knows
// plain RSS <item> blocks and ignores everything Atom-specific beyond
// <entry> aliasing.

var (
	fallbackItemPattern  = regexp.MustCompile(`(?is)<(?:item|entry)[^>]*>(.*?)</(?:item|entry)>`)
	fallbackCDATAPattern = regexp.MustCompile(`(?is)<!\[CDATA\[(.*?)\]\]>`)
	fallbackTagPattern   = regexp.MustCompile(`(?is)<[^>]+>`)
)

type fallbackItem struct {
	Title       string
	Link        string
	Description string
	PubDate     string
}

func parseFallback(payload []byte) []fallbackItem {
	blocks := fallbackItemPattern.FindAllStringSubmatch(string(payload), -1)
	items := make([]fallbackItem, 0, len(blocks))
	for _, block := range blocks {
		body := block[1]
		item := fallbackItem{
			Title:       extractTag(body, "title"),
			Link:        extractLink(body),
			Description: extractTag(body, "description"),
			PubDate:     firstNonEmpty(extractTag(body, "pubDate"), extractTag(body, "published"), extractTag(body, "updated")),
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func extractTag(body, tag string) string {
	pattern := regexp.MustCompile(`(?is)<` + tag + `[^>]*>(.*?)</` + tag + `>`)
	match := pattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return ""
	}
	return cleanText(match[1])
}

// extractLink handles both RSS <link>url</link> and Atom <link href="url"/>.
func extractLink(body string) string {
	if link := extractTag(body, "link"); link != "" {
		return link
	}
	pattern := regexp.MustCompile(`(?is)<link[^>]+href="([^"]+)"`)
	match := pattern.FindStringSubmatch(body)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func cleanText(value string) string {
	value = fallbackCDATAPattern.ReplaceAllString(value, "$1")
	value = fallbackTagPattern.ReplaceAllString(value, "")
	return strings.TrimSpace(html.UnescapeString(value))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
