package article

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"znews/internal/feed"
	"znews/internal/metrics"
)

// MaxDescriptionRunes bounds the normalized description length.
const MaxDescriptionRunes = 500

// Article is the canonical record flowing through the pipeline. Title and
// Link identify it (title for dedup, link for quota bookkeeping); Category
// and Summary are filled by later stages.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
}

var stripPolicy = bluemonday.StrictPolicy()

// Normalize maps a raw feed entry into an Article. The description is taken
// from the entry description first, then the full content; HTML is stripped
// and whitespace collapsed. Missing or unparseable publish dates fall back
// to now.
func Normalize(e feed.Entry, now time.Time) Article {
	desc := e.Description
	if strings.TrimSpace(desc) == "" {
		desc = e.Content
	}
	desc = Truncate(StripHTML(desc), MaxDescriptionRunes)

	date := now
	if e.Published != nil {
		date = *e.Published
	}

	return Article{
		Title:       strings.TrimSpace(e.Title),
		Link:        strings.TrimSpace(e.Link),
		Date:        date.UTC().Format(time.RFC3339),
		Category:    e.SourceCategory,
		Description: desc,
	}
}

// NormalizeAll maps a batch of entries, all stamped with the same fetch time.
func NormalizeAll(entries []feed.Entry, now time.Time) []Article {
	articles := make([]Article, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, Normalize(e, now))
	}
	return articles
}

// StripHTML removes markup and collapses whitespace into single spaces.
func StripHTML(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Dedupe collapses articles sharing an exact title, keeping the first
// occurrence and preserving order. Titles are compared case-sensitively with
// no normalization beyond the trim already done by Normalize.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.Title]; dup {
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		seen[a.Title] = struct{}{}
		out = append(out, a)
	}
	return out
}
