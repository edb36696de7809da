package importers

import (
	"net/url"
	"strings"
	"time"
)

// gamesPathSegment is the first path segment of a game page URL.
const gamesPathSegment = "games"

// SlugFromURL extracts <slug> from an absolute URL shaped like
// https://host/games/<slug>. Any other shape yields false.
func SlugFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) < 2 || parts[0] != gamesPathSegment {
		return "", false
	}
	return parts[1], true
}

// Rating is the star count and favourite flag derived from a rating label.
type Rating struct {
	Stars      int
	IsFavorite bool
}

var ratingTable = map[string]Rating{
	"exceptional": {Stars: 5, IsFavorite: true},
	"recommended": {Stars: 4},
	"meh":         {Stars: 3},
	"skip":        {Stars: 1},
}

// RatingFor maps a rating label to stars. Unknown and empty labels map to
// zero stars.
func RatingFor(label string) Rating {
	return ratingTable[strings.ToLower(strings.TrimSpace(label))]
}

var createdFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
}

// parseCreated reads the date a game was added. Missing or unparseable
// values fall back to now.
func parseCreated(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range createdFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}
