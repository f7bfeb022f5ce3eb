package rank

import (
	"sort"
	"strings"
	"time"

	"znews/internal/article"
	"znews/internal/metrics"
	"znews/internal/sources"
)

// Scored is an article that passed categorization. Relevance is the keyword
// match strength (0-100); Final is the blended relevance/recency score.
type Scored struct {
	article.Article
	Relevance int
	Final     float64
}

// Score computes the relevance of an article for one taxonomy category.
// Any exclude keyword found in title+description vetoes the category
// outright. Each include keyword found contributes 1 point, plus 2 extra
// when it also appears in the title. The result is min(100, points*10).
func Score(a article.Article, cat sources.Category) int {
	text := strings.ToLower(a.Title + " " + a.Description)
	title := strings.ToLower(a.Title)

	for _, kw := range cat.Exclude {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return 0
		}
	}

	points := 0
	for _, kw := range cat.Include {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !strings.Contains(text, kw) {
			continue
		}
		points++
		if strings.Contains(title, kw) {
			points += 2
		}
	}

	score := points * 10
	if score > 100 {
		score = 100
	}
	return score
}

// Assign scores every article against the full taxonomy and keeps those that
// matched some category. The first declared category with the strictly
// highest score wins; later categories must exceed it, so ties resolve to
// declaration order. Articles whose best score is 0 are dropped.
func Assign(articles []article.Article, taxonomy []sources.Category) []Scored {
	out := make([]Scored, 0, len(articles))
	for _, a := range articles {
		best := 0
		bestCat := ""
		for _, cat := range taxonomy {
			if s := Score(a, cat); s > best {
				best = s
				bestCat = cat.Name
			}
		}
		if best == 0 {
			metrics.Global.IncrementArticlesDropped()
			continue
		}
		a.Category = bestCat
		out = append(out, Scored{Article: a, Relevance: best})
	}
	return out
}

// Blend fills Final for the whole categorized set:
// final = relevance*0.5 + timeScore*0.5, where timeScore normalizes each
// article's timestamp into [0,100] over the observed date range of this
// batch. A batch with a single distinct timestamp gets 50 across the board.
// The normalization is deliberately batch-relative: scores only ever compete
// within one run.
func Blend(scored []Scored) {
	if len(scored) == 0 {
		return
	}

	times := make([]time.Time, len(scored))
	minT, maxT := time.Time{}, time.Time{}
	// Unparseable dates take now, same as the normalizer's fallback; the
	// zero time would stretch the span and crush every real timeScore.
	now := time.Now()
	for i, s := range scored {
		t, err := time.Parse(time.RFC3339, s.Date)
		if err != nil {
			t = now
		}
		times[i] = t
		if i == 0 || t.Before(minT) {
			minT = t
		}
		if i == 0 || t.After(maxT) {
			maxT = t
		}
	}

	span := maxT.Sub(minT)
	for i := range scored {
		timeScore := 50.0
		if span > 0 {
			timeScore = float64(times[i].Sub(minT)) / float64(span) * 100
		}
		scored[i].Final = float64(scored[i].Relevance)*0.5 + timeScore*0.5
	}
}

// SortByFinal orders descending by blended score.
func SortByFinal(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Final > scored[j].Final
	})
}

// SortByDate orders descending by publish date.
func SortByDate(articles []article.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339, articles[i].Date)
		tj, _ := time.Parse(time.RFC3339, articles[j].Date)
		return ti.After(tj)
	})
}

// SelectTop is the recency-mode selector: a plain cap after sorting.
func SelectTop(articles []article.Article, limit int) []article.Article {
	if len(articles) <= limit {
		return articles
	}
	return articles[:limit]
}

// SelectBlended applies the two-phase quota selection. Phase 1 reserves up
// to minPerCategory slots per taxonomy category, picked by descending
// relevance within the category. Phase 2 fills the remaining slots up to cap
// from the whole pool by descending final score. Selection is keyed by link
// so an article never occupies two slots. The result comes back in final
// rank order.
func SelectBlended(scored []Scored, taxonomy []sources.Category, limit, minPerCategory int) []Scored {
	selected := make([]Scored, 0, limit)
	seen := make(map[string]struct{})

	byCategory := make(map[string][]Scored)
	for _, s := range scored {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	for _, cat := range taxonomy {
		if len(selected) >= limit {
			break
		}
		candidates := byCategory[cat.Name]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Relevance > candidates[j].Relevance
		})

		taken := 0
		for _, s := range candidates {
			if taken >= minPerCategory || len(selected) >= limit {
				break
			}
			if _, dup := seen[s.Link]; dup {
				continue
			}
			seen[s.Link] = struct{}{}
			selected = append(selected, s)
			taken++
		}
	}

	if len(selected) < limit {
		pool := make([]Scored, len(scored))
		copy(pool, scored)
		SortByFinal(pool)
		for _, s := range pool {
			if len(selected) >= limit {
				break
			}
			if _, dup := seen[s.Link]; dup {
				continue
			}
			seen[s.Link] = struct{}{}
			selected = append(selected, s)
		}
	}

	SortByFinal(selected)
	return selected
}
