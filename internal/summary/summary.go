// Package summary produces the short Chinese-language summary for each
// retained article: a truncation fast path for text that is already Chinese,
// and a hosted text-generation provider (with retry and budget) for the rest.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"znews/internal/article"
	"znews/internal/metrics"
	"znews/internal/ratelimit"
	"znews/internal/retry"
)

// FallbackRunes is the length of the truncation-based summary.
const FallbackRunes = 150

const ellipsis = "..."

// Provider is one hosted text-generation endpoint. Implementations differ
// only in request/response shape; the contract is identical.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, text string) (string, error)
}

// RateLimitError marks responses worth retrying (HTTP 429/503). Everything
// else fails the call immediately and falls back to truncation.
type RateLimitError struct {
	Provider   string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (HTTP %d)", e.Provider, e.StatusCode)
}

// IsRateLimited reports whether err is a retryable provider response.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

type Options struct {
	BatchSize     int           // concurrent requests per batch
	BatchPause    time.Duration // pause between batches
	RetryAttempts int
	RetryDelay    time.Duration // base delay, doubled per attempt
}

// Summarizer fans summarization requests out in small fixed-size batches.
// A nil provider (no credential configured) short-circuits every article to
// the truncation fallback without any network calls.
type Summarizer struct {
	provider Provider
	budget   *ratelimit.Budget
	opts     Options
}

func New(provider Provider, budget *ratelimit.Budget, opts Options) *Summarizer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.BatchPause <= 0 {
		opts.BatchPause = time.Second
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	return &Summarizer{provider: provider, budget: budget, opts: opts}
}

// SummarizeAll returns a copy of articles with Summary filled in. Batches of
// BatchSize run concurrently, with BatchPause between batches to respect
// provider rate limits.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []article.Article) []article.Article {
	out := make([]article.Article, len(articles))
	copy(out, articles)

	for start := 0; start < len(out); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(out) {
			end = len(out)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i].Summary = s.summarize(ctx, out[i].Description)
			}(i)
		}
		wg.Wait()

		if end < len(out) {
			select {
			case <-ctx.Done():
				// Fill what remains with fallbacks rather than leaving
				// summaries empty.
				for i := end; i < len(out); i++ {
					out[i].Summary = Fallback(out[i].Description)
				}
				return out
			case <-time.After(s.opts.BatchPause):
			}
		}
	}

	return out
}

func (s *Summarizer) summarize(ctx context.Context, description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}

	// Already Chinese: truncation is the summary, no API call needed.
	if ContainsCJK(description) {
		return Fallback(description)
	}

	if s.provider == nil {
		s.recordFallback()
		return Fallback(description)
	}

	if s.budget != nil {
		if err := s.budget.Use(s.provider.Name()); err != nil {
			slog.Warn("summary budget exhausted", "error", err)
			s.recordFallback()
			return Fallback(description)
		}
	}

	var result string
	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: s.opts.RetryAttempts,
		Delay:       s.opts.RetryDelay,
		Backoff:     true,
		RetryIf:     IsRateLimited,
	}, func() error {
		resp, err := s.provider.Summarize(ctx, description)
		if err != nil {
			return err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" {
			return errors.New("empty provider response")
		}
		result = resp
		return nil
	})

	if err != nil {
		slog.Warn("summarization failed, using fallback",
			"provider", s.provider.Name(), "error", err)
		s.recordFallback()
		return Fallback(description)
	}

	metrics.Global.IncrementSummariesGenerated()
	return result
}

func (s *Summarizer) recordFallback() {
	metrics.Global.IncrementSummaryFallbacks()
	if s.budget != nil {
		s.budget.RecordFallback()
	}
}

// Fallback is the deterministic non-AI summary: the description truncated to
// 150 runes. The "..." marker is appended only when truncation actually
// removed text; a description that already fits is returned verbatim, since
// a trailing marker there would falsely signal more content.
func Fallback(description string) string {
	description = strings.TrimSpace(description)
	runes := []rune(description)
	if len(runes) <= FallbackRunes {
		return description
	}
	return string(runes[:FallbackRunes]) + ellipsis
}

// ContainsCJK reports whether s contains Han characters.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
