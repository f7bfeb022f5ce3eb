// Package app orchestrates one aggregation run: fetch, normalize, rank,
// summarize, publish.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"znews/internal/article"
	"znews/internal/config"
	"znews/internal/feed"
	"znews/internal/metrics"
	"znews/internal/rank"
	"znews/internal/ratelimit"
	"znews/internal/scraper"
	"znews/internal/snapshot"
	"znews/internal/sources"
	"znews/internal/summary"
)

// Run executes the whole pipeline once. The snapshot at cfg.OutputPath is
// only replaced when the run reaches the publish step.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	srcCfg, err := sources.Load(cfg.SourcesPath)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("load sources: %w", err)
	}
	slog.Info("configuration loaded",
		"sources", len(srcCfg.Sources), "categories", len(srcCfg.Categories), "mode", cfg.RankMode)

	client := feed.NewClient(cfg.FetchTimeout)
	entries := client.Fetch(ctx, srcCfg.Sources)
	if len(entries) == 0 {
		err := errors.New("no entries collected from any feed")
		metrics.Global.SetError(err.Error())
		return err
	}

	now := time.Now()
	articles := article.Dedupe(article.NormalizeAll(entries, now))
	slog.Info("articles normalized", "entries", len(entries), "unique", len(articles))

	selected, categories := selectArticles(articles, srcCfg, cfg)
	if len(selected) == 0 {
		err := errors.New("no articles survived selection")
		metrics.Global.SetError(err.Error())
		return err
	}
	slog.Info("articles selected", "count", len(selected))

	enriched := map[string]string{}
	if cfg.ScrapeTop > 0 {
		links := make([]string, 0, len(selected))
		for _, s := range selected {
			links = append(links, s.Link)
		}
		enriched = scraper.New(cfg.FetchTimeout).ExtractAll(ctx, links, cfg.ScrapeTop)
		slog.Info("article pages scraped", "requested", cfg.ScrapeTop, "extracted", len(enriched))
	}

	summarized := summarize(ctx, cfg, selected, enriched)

	snap := snapshot.Build(summarized, categories, now)
	if err := snapshot.Write(cfg.OutputPath, snap); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	metrics.Global.SetArticlesPublished(len(summarized))
	metrics.Global.RecordRun(time.Since(start))
	slog.Info("snapshot published",
		"path", cfg.OutputPath, "articles", len(summarized), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// selectArticles applies the configured ranking strategy and returns the
// retained set plus the category list published alongside it.
func selectArticles(articles []article.Article, srcCfg *sources.Config, cfg *config.Config) ([]rank.Scored, []string) {
	if cfg.RankMode == config.RankModeRecency {
		rank.SortByDate(articles)
		top := rank.SelectTop(articles, cfg.MaxArticles)
		out := make([]rank.Scored, len(top))
		for i, a := range top {
			out[i] = rank.Scored{Article: a}
		}
		return out, srcCfg.SourceCategoryNames()
	}

	scored := rank.Assign(articles, srcCfg.Categories)
	rank.Blend(scored)
	return rank.SelectBlended(scored, srcCfg.Categories, cfg.MaxArticles, cfg.MinPerCategory), srcCfg.CategoryNames()
}

// summarize fills Summary for the selection. Scraped page text, when
// available, replaces the feed description as summarization input only; the
// published description stays as the feed gave it.
func summarize(ctx context.Context, cfg *config.Config, selected []rank.Scored, enriched map[string]string) []rank.Scored {
	provider := buildProvider(ctx, cfg)
	if closer, ok := provider.(interface{ Close() }); ok {
		defer closer.Close()
	}

	budget := ratelimit.NewBudget(0, cfg.MaxAIRequests)
	s := summary.New(provider, budget, summary.Options{BatchSize: cfg.SummaryBatch})

	input := make([]article.Article, len(selected))
	for i, sc := range selected {
		input[i] = sc.Article
		if body, ok := enriched[sc.Link]; ok {
			input[i].Description = body
		}
	}

	summarized := s.SummarizeAll(ctx, input)
	budget.LogStats()

	out := make([]rank.Scored, len(selected))
	copy(out, selected)
	for i := range out {
		out[i].Summary = summarized[i].Summary
	}
	return out
}

// buildProvider returns nil when no usable credential is configured, which
// degrades every summary to the truncation fallback.
func buildProvider(ctx context.Context, cfg *config.Config) summary.Provider {
	key := cfg.ProviderKey()
	if key == "" {
		slog.Warn("no API key configured, summaries fall back to truncation", "provider", cfg.Provider)
		return nil
	}

	switch cfg.Provider {
	case "deepseek":
		return summary.NewDeepSeek(key)
	case "glm":
		return summary.NewGLM(key)
	case "gemini":
		g, err := summary.NewGemini(ctx, key)
		if err != nil {
			slog.Error("gemini client init failed, falling back to truncation", "error", err)
			return nil
		}
		return g
	}

	slog.Warn("unknown provider, summaries fall back to truncation", "provider", cfg.Provider)
	return nil
}
