package common

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublished parses the inconsistent date strings providers emit.
// When nothing parses, the current time is substituted so un-dated items
// still sort; genuinely old but un-dated content will rank as newest.
func ParsePublished(raw string, now time.Time) time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return now.UTC()
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return now.UTC()
}
