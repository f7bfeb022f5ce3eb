package sources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is one configured RSS feed. The category label is used directly in
// recency mode; in blended mode categories come from the keyword taxonomy
// instead.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// Category is one entry of the keyword taxonomy. Order matters: when two
// categories score the same, the one declared first wins.
type Category struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type Config struct {
	Sources    []Source   `yaml:"sources"`
	Categories []Category `yaml:"categories"`
}

// Load reads the source list and taxonomy from a YAML file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode sources config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources config lists no feeds")
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("source %d (%q) has no url", i, s.Name)
		}
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("taxonomy category with empty name")
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("duplicate taxonomy category %q", cat.Name)
		}
		seen[cat.Name] = struct{}{}
	}
	return nil
}

// CategoryNames returns the taxonomy names in declared order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// SourceCategoryNames returns the distinct source labels in first-seen order.
func (c *Config) SourceCategoryNames() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, s := range c.Sources {
		if s.Category == "" {
			continue
		}
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		names = append(names, s.Category)
	}
	return names
}
