// Package scraper optionally fetches article pages to give the summarizer
// richer input than the feed's own description.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxContentRunes = 1800

// candidate selectors, most specific first; the generic "p" walk is the
// last resort.
var contentSelectors = []string{
	"article p",
	".article-content p",
	".post-content p",
	".entry-content p",
	".content p",
	"main p",
	"#content p",
	"p",
}

type Scraper struct {
	client *http.Client
	pause  time.Duration
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		pause:  500 * time.Millisecond,
	}
}

// ExtractAll fetches up to limit URLs sequentially, pausing between requests,
// and returns body text keyed by URL. Failures are logged and skipped.
func (s *Scraper) ExtractAll(ctx context.Context, urls []string, limit int) map[string]string {
	result := make(map[string]string)

	for i, url := range urls {
		if i >= limit {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(s.pause):
			}
		}

		content, err := s.extract(ctx, url)
		if err != nil {
			slog.Warn("article extraction failed", "url", url, "error", err)
			continue
		}
		if len(content) < 100 {
			slog.Debug("extracted content too short", "url", url, "len", len(content))
			continue
		}
		result[url] = content
	}

	return result
}

func (s *Scraper) extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	return extractBody(doc), nil
}

func extractBody(doc *goquery.Document) string {
	var paragraphs []string

	for i, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		// Accept whatever the last-resort selector found.
		if len(paragraphs) >= 3 || i == len(contentSelectors)-1 {
			break
		}
		paragraphs = paragraphs[:0]
	}

	body := strings.Join(paragraphs, "\n\n")
	runes := []rune(body)
	if len(runes) > maxContentRunes {
		body = string(runes[:maxContentRunes])
	}
	return body
}
