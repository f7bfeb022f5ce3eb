package summary

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"znews/internal/article"
	"znews/internal/ratelimit"
)

// fakeProvider counts calls and replays a scripted sequence of results.
type fakeProvider struct {
	calls   atomic.Int64
	results []func() (string, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Summarize(ctx context.Context, text string) (string, error) {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.results) {
		return f.results[n]()
	}
	return "摘要内容", nil
}

func fastOptions() Options {
	return Options{BatchSize: 3, BatchPause: time.Millisecond, RetryAttempts: 3, RetryDelay: time.Millisecond}
}

func TestFallback_TruncatesTo150RunesPlusEllipsis(t *testing.T) {
	long := strings.Repeat("新", 300)
	got := Fallback(long)
	require.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 150, len([]rune(strings.TrimSuffix(got, "..."))))

	short := "短描述"
	assert.Equal(t, short, Fallback(short))
}

func TestContainsCJK(t *testing.T) {
	assert.True(t, ContainsCJK("new aluminum 合金 breakthrough"))
	assert.False(t, ContainsCJK("plain english text"))
	assert.False(t, ContainsCJK(""))
}

func TestSummarize_CJKDescriptionSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	desc := strings.Repeat("这是一条很长的中文新闻描述。", 30)
	out := s.SummarizeAll(context.Background(), []article.Article{{Title: "t", Description: desc}})

	require.Len(t, out, 1)
	assert.Equal(t, Fallback(desc), out[0].Summary)
	assert.Equal(t, int64(0), provider.calls.Load(), "CJK fast path must not call the provider")
}

func TestSummarize_NoProviderFallsBackWithoutRequests(t *testing.T) {
	s := New(nil, nil, fastOptions())

	desc := strings.Repeat("english description text ", 20)
	out := s.SummarizeAll(context.Background(), []article.Article{
		{Description: desc},
		{Description: desc},
	})

	for _, a := range out {
		assert.Equal(t, Fallback(a.Description), a.Summary)
	}
}

func TestSummarize_ProviderSuccess(t *testing.T) {
	provider := &fakeProvider{results: []func() (string, error){
		func() (string, error) { return "  一段AI摘要  ", nil },
	}}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	out := s.SummarizeAll(context.Background(), []article.Article{
		{Description: "english description"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "一段AI摘要", out[0].Summary)
	assert.Equal(t, int64(1), provider.calls.Load())
}

func TestSummarize_RateLimitedRetriesThenSucceeds(t *testing.T) {
	rateLimited := func() (string, error) {
		return "", &RateLimitError{Provider: "fake", StatusCode: 429}
	}
	provider := &fakeProvider{results: []func() (string, error){
		rateLimited,
		rateLimited,
		func() (string, error) { return "重试后的摘要", nil },
	}}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	out := s.SummarizeAll(context.Background(), []article.Article{
		{Description: "english description"},
	})

	assert.Equal(t, "重试后的摘要", out[0].Summary)
	assert.Equal(t, int64(3), provider.calls.Load())
}

func TestSummarize_NonRetryableErrorFallsBackImmediately(t *testing.T) {
	provider := &fakeProvider{results: []func() (string, error){
		func() (string, error) { return "", errors.New("401 unauthorized") },
	}}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	desc := "english description that is long enough"
	out := s.SummarizeAll(context.Background(), []article.Article{{Description: desc}})

	assert.Equal(t, Fallback(desc), out[0].Summary)
	assert.Equal(t, int64(1), provider.calls.Load(), "non-retryable errors must not retry")
}

func TestSummarize_RetriesExhaustedFallsBack(t *testing.T) {
	rateLimited := func() (string, error) {
		return "", &RateLimitError{Provider: "fake", StatusCode: 503}
	}
	provider := &fakeProvider{results: []func() (string, error){
		rateLimited, rateLimited, rateLimited, rateLimited,
	}}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	desc := "english description"
	out := s.SummarizeAll(context.Background(), []article.Article{{Description: desc}})

	assert.Equal(t, Fallback(desc), out[0].Summary)
	assert.Equal(t, int64(3), provider.calls.Load(), "retry budget is 3 attempts")
}

func TestSummarize_BudgetExhaustionDegrades(t *testing.T) {
	provider := &fakeProvider{}
	s := New(provider, ratelimit.NewBudget(0, 2), fastOptions())

	arts := []article.Article{
		{Description: "first english description"},
		{Description: "second english description"},
		{Description: "third english description"},
	}
	out := s.SummarizeAll(context.Background(), arts)

	require.Len(t, out, 3)
	assert.Equal(t, int64(2), provider.calls.Load(), "only budgeted requests reach the provider")

	fallbacks := 0
	for _, a := range out {
		if a.Summary == Fallback(a.Description) {
			fallbacks++
		}
	}
	assert.Equal(t, 1, fallbacks)
}

func TestSummarize_EmptyDescription(t *testing.T) {
	provider := &fakeProvider{}
	s := New(provider, ratelimit.NewBudget(0, 0), fastOptions())

	out := s.SummarizeAll(context.Background(), []article.Article{{Title: "only title"}})
	assert.Equal(t, "", out[0].Summary)
	assert.Equal(t, int64(0), provider.calls.Load())
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&RateLimitError{Provider: "x", StatusCode: 429}))
	assert.False(t, IsRateLimited(errors.New("plain error")))
	wrapped := errors.Join(errors.New("outer"), &RateLimitError{Provider: "x", StatusCode: 503})
	assert.True(t, IsRateLimited(wrapped))
}
