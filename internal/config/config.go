// Package config reads the runtime configuration from flags and environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	RankModeBlended = "blended"
	RankModeRecency = "recency"
)

type rawConfig struct {
	SourcesPath string `long:"sources" env:"SOURCES_PATH" default:"configs/sources.yaml" description:"Path to the feed and taxonomy configuration file"`
	OutputPath  string `long:"output" env:"OUTPUT_PATH" default:"data/news.json" description:"Path of the JSON snapshot written each run"`

	RankMode       string `long:"rank-mode" env:"RANK_MODE" default:"blended" choice:"blended" choice:"recency" description:"Ranking strategy"`
	MaxArticles    int    `long:"max-articles" env:"MAX_ARTICLES" default:"50" description:"Maximum articles kept per run"`
	MinPerCategory int    `long:"min-per-category" env:"MIN_PER_CATEGORY" default:"3" description:"Slots reserved per category in blended mode"`

	Provider      string `long:"ai-provider" env:"AI_PROVIDER" default:"deepseek" choice:"deepseek" choice:"glm" choice:"gemini" description:"Summarization provider"`
	DeepSeekKey   string `long:"deepseek-key" env:"DEEPSEEK_API_KEY" description:"DeepSeek API key"`
	GLMKey        string `long:"glm-key" env:"GLM_API_KEY" description:"Zhipu GLM API key"`
	GeminiKey     string `long:"gemini-key" env:"GEMINI_API_KEY" description:"Google Gemini API key"`
	SummaryBatch  int    `long:"summary-batch" env:"SUMMARY_BATCH" default:"3" description:"Concurrent summarization requests per batch"`
	MaxAIRequests int    `long:"max-ai-requests" env:"MAX_AI_REQUESTS" default:"60" description:"Per-run cap on provider requests (0 = unlimited)"`

	FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30s" description:"HTTP timeout per feed"`
	RunTimeout   time.Duration `long:"run-timeout" env:"RUN_TIMEOUT" default:"10m" description:"Deadline for the whole run"`
	ScrapeTop    int           `long:"scrape-top" env:"SCRAPE_TOP" default:"0" description:"Fetch full article text for the top N selected articles (0 = off)"`

	EnableMonitoring bool   `long:"enable-monitoring" env:"ENABLE_HTTP_MONITORING" description:"Serve health and metrics endpoints during the run"`
	MonitoringPort   string `long:"monitoring-port" env:"MONITORING_PORT" default:"8080" description:"Monitoring server port"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type Config struct {
	SourcesPath string
	OutputPath  string

	RankMode       string
	MaxArticles    int
	MinPerCategory int

	Provider      string
	DeepSeekKey   string
	GLMKey        string
	GeminiKey     string
	SummaryBatch  int
	MaxAIRequests int

	FetchTimeout time.Duration
	RunTimeout   time.Duration
	ScrapeTop    int

	EnableMonitoring bool
	MonitoringPort   string

	Debug bool
}

// Load parses flags and environment. A (nil, nil) return means help was
// requested and the process should exit cleanly.
func Load() (*Config, error) {
	var raw rawConfig

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		SourcesPath:      raw.SourcesPath,
		OutputPath:       raw.OutputPath,
		RankMode:         raw.RankMode,
		MaxArticles:      raw.MaxArticles,
		MinPerCategory:   raw.MinPerCategory,
		Provider:         raw.Provider,
		DeepSeekKey:      raw.DeepSeekKey,
		GLMKey:           raw.GLMKey,
		GeminiKey:        raw.GeminiKey,
		SummaryBatch:     raw.SummaryBatch,
		MaxAIRequests:    raw.MaxAIRequests,
		FetchTimeout:     raw.FetchTimeout,
		RunTimeout:       raw.RunTimeout,
		ScrapeTop:        raw.ScrapeTop,
		EnableMonitoring: raw.EnableMonitoring,
		MonitoringPort:   raw.MonitoringPort,
		Debug:            raw.Debug,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxArticles <= 0 {
		return fmt.Errorf("max-articles must be positive, got %d", c.MaxArticles)
	}
	if c.MinPerCategory < 0 {
		return fmt.Errorf("min-per-category must not be negative, got %d", c.MinPerCategory)
	}
	if c.MinPerCategory > c.MaxArticles {
		return fmt.Errorf("min-per-category (%d) exceeds max-articles (%d)", c.MinPerCategory, c.MaxArticles)
	}
	return nil
}

// ProviderKey returns the credential matching the selected provider.
func (c *Config) ProviderKey() string {
	switch c.Provider {
	case "deepseek":
		return c.DeepSeekKey
	case "glm":
		return c.GLMKey
	case "gemini":
		return c.GeminiKey
	}
	return ""
}
