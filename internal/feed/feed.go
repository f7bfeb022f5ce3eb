package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"znews/internal/metrics"
	"znews/internal/sources"
)

// Some feed providers reject requests that look like a bot, so identify as a
// regular browser.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Entry is one raw feed item plus the source it came from. Normalization
// into an Article happens downstream.
type Entry struct {
	Title          string
	Link           string
	Description    string
	Content        string
	Published      *time.Time
	SourceName     string
	SourceCategory string
}

type Client struct {
	httpClient *http.Client
	groupPause time.Duration
}

// NewClient builds a fetcher with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		groupPause: 500 * time.Millisecond,
	}
}

// newParser returns a parser for a single fetch. gofeed.Parser initializes
// internal state lazily on first parse and must not be shared across
// goroutines; the HTTP client underneath is shared and safe.
func (c *Client) newParser() *gofeed.Parser {
	p := gofeed.NewParser()
	p.Client = c.httpClient
	p.UserAgent = userAgent
	return p
}

// Fetch retrieves all configured feeds and returns the collected raw entries.
// Sources sharing a category label form a group; feeds within a group are
// fetched concurrently, with a short pause between groups to avoid bursts
// against related origins. Per-feed failures are logged and contribute zero
// entries; Fetch itself never fails.
func (c *Client) Fetch(ctx context.Context, srcs []sources.Source) []Entry {
	var (
		mu      sync.Mutex
		entries []Entry
		okCount int
	)

	groups := groupByCategory(srcs)
	for i, group := range groups {
		if i > 0 {
			select {
			case <-ctx.Done():
				return entries
			case <-time.After(c.groupPause):
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, src := range group {
			src := src
			g.Go(func() error {
				items := c.fetchOne(gctx, src)
				if items == nil {
					return nil
				}
				mu.Lock()
				entries = append(entries, items...)
				okCount++
				mu.Unlock()
				return nil
			})
		}
		g.Wait()
	}

	slog.Info("feeds fetched", "ok", okCount, "total", len(srcs), "entries", len(entries))
	return entries
}

// fetchOne returns nil when the feed could not be retrieved or parsed.
func (c *Client) fetchOne(ctx context.Context, src sources.Source) []Entry {
	feed, err := c.newParser().ParseURLWithContext(src.URL, ctx)
	if err != nil {
		slog.Warn("feed fetch failed", "source", src.Name, "url", src.URL, "error", err)
		metrics.Global.IncrementFeedErrors()
		return nil
	}

	items := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		items = append(items, Entry{
			Title:          item.Title,
			Link:           item.Link,
			Description:    item.Description,
			Content:        item.Content,
			Published:      published,
			SourceName:     src.Name,
			SourceCategory: src.Category,
		})
	}

	slog.Debug("feed fetched", "source", src.Name, "entries", len(items))
	metrics.Global.IncrementFeedsFetched()
	metrics.Global.AddEntriesCollected(len(items))
	return items
}

func groupByCategory(srcs []sources.Source) [][]sources.Source {
	var order []string
	byCategory := make(map[string][]sources.Source)
	for _, s := range srcs {
		if _, ok := byCategory[s.Category]; !ok {
			order = append(order, s.Category)
		}
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	groups := make([][]sources.Source, 0, len(order))
	for _, cat := range order {
		groups = append(groups, byCategory[cat])
	}
	return groups
}
