// Package snapshot writes the run's final article set to a JSON file that
// downstream pages and tools read.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"znews/internal/rank"
)

// updateTimeLayout is the human-readable timestamp shown on the page.
const updateTimeLayout = "2006/1/2 15:04:05"

type Article struct {
	Title          string  `json:"title"`
	Link           string  `json:"link"`
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Summary        string  `json:"summary"`
	RelevanceScore int     `json:"relevanceScore,omitempty"`
	FinalScore     float64 `json:"finalScore,omitempty"`
}

type Snapshot struct {
	LastUpdated   string    `json:"lastUpdated"`
	UpdateTime    string    `json:"updateTime"`
	TotalArticles int       `json:"totalArticles"`
	Categories    []string  `json:"categories"`
	Articles      []Article `json:"articles"`
}

// Build assembles a snapshot from the ranked selection. Categories lists the
// taxonomy in declaration order so consumers render stable navigation.
func Build(selected []rank.Scored, categories []string, now time.Time) Snapshot {
	articles := make([]Article, 0, len(selected))
	for _, s := range selected {
		articles = append(articles, Article{
			Title:          s.Title,
			Link:           s.Link,
			Date:           s.Date,
			Category:       s.Category,
			Description:    s.Description,
			Summary:        s.Summary,
			RelevanceScore: s.Relevance,
			FinalScore:     s.Final,
		})
	}

	return Snapshot{
		LastUpdated:   now.UTC().Format(time.RFC3339),
		UpdateTime:    now.Format(updateTimeLayout),
		TotalArticles: len(articles),
		Categories:    categories,
		Articles:      articles,
	}
}

// Write replaces the file at path with the snapshot, creating parent
// directories as needed.
func Write(path string, snap Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Read loads an existing snapshot, used by the monitoring server's preview
// endpoint.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
