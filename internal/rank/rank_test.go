package rank

import (
	"fmt"
	"testing"
	"time"

	"znews/internal/article"
	"znews/internal/sources"
)

var materials = sources.Category{
	Name:    "materials",
	Include: []string{"aluminum", "alloy", "composite"},
	Exclude: []string{"recipe"},
}

var ev = sources.Category{
	Name:    "ev",
	Include: []string{"battery", "charging", "electric vehicle"},
}

func TestScore_IncludeAndTitleBonus(t *testing.T) {
	a := article.Article{
		Title:       "Aluminum Alloy Breakthrough",
		Description: "researchers developed lightweight aluminum alloy for automotive use",
	}

	// "aluminum" and "alloy" both hit the combined text (1 point each) and
	// the title (2 extra each): 6 points -> 60.
	if got := Score(a, materials); got != 60 {
		t.Errorf("expected score 60, got %d", got)
	}
	if got := Score(a, materials); got < 20 {
		t.Errorf("scenario requires score >= 20, got %d", got)
	}
}

func TestScore_ExcludeVetoes(t *testing.T) {
	a := article.Article{
		Title:       "Aluminum pan recipe",
		Description: "the best alloy cookware recipe for aluminum lovers",
	}
	if got := Score(a, materials); got != 0 {
		t.Errorf("exclude keyword must veto the category, got %d", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	many := article.Article{
		Title:       "aluminum alloy composite",
		Description: "aluminum alloy composite aluminum alloy composite",
	}
	got := Score(many, materials)
	if got < 0 || got > 100 {
		t.Fatalf("score out of [0,100]: %d", got)
	}
	if got != 90 {
		// 3 keywords, each 1 point + 2 title bonus = 9 points.
		t.Errorf("expected 90, got %d", got)
	}

	huge := sources.Category{Name: "wide", Include: []string{
		"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10", "a11", "a12",
	}}
	stuffed := article.Article{
		Title:       "a1 a2 a3 a4 a5 a6 a7 a8 a9 a10 a11 a12",
		Description: "",
	}
	if got := Score(stuffed, huge); got != 100 {
		t.Errorf("score must clamp at 100, got %d", got)
	}
}

func TestAssign_DropsUnmatchedAndSetsCategory(t *testing.T) {
	tax := []sources.Category{materials, ev}
	arts := []article.Article{
		{Title: "Aluminum Alloy Breakthrough", Description: "lightweight aluminum alloy"},
		{Title: "Celebrity gossip", Description: "nothing technical here"},
		{Title: "EV Battery News", Description: "solid state battery charging improvements"},
	}

	scored := Assign(arts, tax)
	if len(scored) != 2 {
		t.Fatalf("expected 2 categorized articles, got %d", len(scored))
	}
	if scored[0].Category != "materials" {
		t.Errorf("expected materials, got %q", scored[0].Category)
	}
	if scored[1].Category != "ev" {
		t.Errorf("expected ev, got %q", scored[1].Category)
	}
	for _, s := range scored {
		if s.Relevance <= 0 || s.Relevance > 100 {
			t.Errorf("relevance out of range: %d", s.Relevance)
		}
	}
}

func TestAssign_TieBreakPrefersDeclarationOrder(t *testing.T) {
	first := sources.Category{Name: "first", Include: []string{"widget"}}
	second := sources.Category{Name: "second", Include: []string{"widget"}}

	scored := Assign([]article.Article{
		{Title: "plain", Description: "a widget appeared"},
	}, []sources.Category{first, second})

	if len(scored) != 1 {
		t.Fatalf("expected 1 article, got %d", len(scored))
	}
	if scored[0].Category != "first" {
		t.Errorf("tie must resolve to the first declared category, got %q", scored[0].Category)
	}
}

func TestBlend_TimeScoreNormalization(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	scored := []Scored{
		{Article: article.Article{Date: base.Format(time.RFC3339)}, Relevance: 40},
		{Article: article.Article{Date: base.Add(12 * time.Hour).Format(time.RFC3339)}, Relevance: 40},
		{Article: article.Article{Date: base.Add(24 * time.Hour).Format(time.RFC3339)}, Relevance: 40},
	}

	Blend(scored)

	if scored[0].Final != 20 { // 40*0.5 + 0*0.5
		t.Errorf("oldest article: expected final 20, got %v", scored[0].Final)
	}
	if scored[1].Final != 45 { // 40*0.5 + 50*0.5
		t.Errorf("middle article: expected final 45, got %v", scored[1].Final)
	}
	if scored[2].Final != 70 { // 40*0.5 + 100*0.5
		t.Errorf("newest article: expected final 70, got %v", scored[2].Final)
	}
}

func TestBlend_SingleTimestampGetsFifty(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	scored := []Scored{
		{Article: article.Article{Date: date}, Relevance: 80},
		{Article: article.Article{Date: date}, Relevance: 20},
	}

	Blend(scored)

	if scored[0].Final != 65 { // 80*0.5 + 50*0.5
		t.Errorf("expected 65, got %v", scored[0].Final)
	}
	if scored[1].Final != 35 { // 20*0.5 + 50*0.5
		t.Errorf("expected 35, got %v", scored[1].Final)
	}
}

func TestBlend_UnparseableDatesDoNotStretchSpan(t *testing.T) {
	scored := []Scored{
		{Article: article.Article{Date: "not-a-date"}, Relevance: 80},
		{Article: article.Article{Date: ""}, Relevance: 20},
	}

	Blend(scored)

	// Both dates fall back to the same instant, so the batch degenerates to
	// the single-timestamp case rather than a zero-time outlier pinning the
	// span at decades.
	if scored[0].Final != 65 { // 80*0.5 + 50*0.5
		t.Errorf("expected 65, got %v", scored[0].Final)
	}
	if scored[1].Final != 35 { // 20*0.5 + 50*0.5
		t.Errorf("expected 35, got %v", scored[1].Final)
	}
}

func TestSelectTop_Caps(t *testing.T) {
	arts := make([]article.Article, 80)
	for i := range arts {
		arts[i] = article.Article{Title: fmt.Sprintf("t%d", i)}
	}
	if got := len(SelectTop(arts, 50)); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	if got := len(SelectTop(arts[:10], 50)); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestSortByDate_Descending(t *testing.T) {
	arts := []article.Article{
		{Title: "old", Date: "2026-08-01T00:00:00Z"},
		{Title: "new", Date: "2026-08-20T00:00:00Z"},
		{Title: "mid", Date: "2026-08-10T00:00:00Z"},
	}
	SortByDate(arts)
	if arts[0].Title != "new" || arts[1].Title != "mid" || arts[2].Title != "old" {
		t.Errorf("wrong order: %v %v %v", arts[0].Title, arts[1].Title, arts[2].Title)
	}
}

func makeScored(category, link string, relevance int, final float64) Scored {
	return Scored{
		Article:   article.Article{Title: link, Link: link, Category: category},
		Relevance: relevance,
		Final:     final,
	}
}

func TestSelectBlended_CategoryMinimum(t *testing.T) {
	tax := []sources.Category{{Name: "materials"}, {Name: "ev"}}

	var scored []Scored
	// Many strong ev articles and a few weak materials ones.
	for i := 0; i < 60; i++ {
		scored = append(scored, makeScored("ev", fmt.Sprintf("https://ev/%d", i), 90, 90))
	}
	for i := 0; i < 5; i++ {
		scored = append(scored, makeScored("materials", fmt.Sprintf("https://mat/%d", i), 10+i, 10))
	}

	selected := SelectBlended(scored, tax, 50, 3)

	if len(selected) != 50 {
		t.Fatalf("expected exactly 50 selected, got %d", len(selected))
	}

	matCount := 0
	for _, s := range selected {
		if s.Category == "materials" {
			matCount++
		}
	}
	if matCount < 3 {
		t.Errorf("category with >=3 candidates must keep at least 3 slots, got %d", matCount)
	}
}

func TestSelectBlended_Phase1UsesRelevanceNotFinal(t *testing.T) {
	tax := []sources.Category{{Name: "materials"}}
	scored := []Scored{
		makeScored("materials", "https://mat/low-rel-high-final", 10, 95),
		makeScored("materials", "https://mat/high-rel-low-final", 90, 20),
		makeScored("materials", "https://mat/mid1", 50, 50),
		makeScored("materials", "https://mat/mid2", 40, 60),
	}

	selected := SelectBlended(scored, tax, 3, 3)
	if len(selected) != 3 {
		t.Fatalf("expected 3, got %d", len(selected))
	}
	links := map[string]bool{}
	for _, s := range selected {
		links[s.Link] = true
	}
	if !links["https://mat/high-rel-low-final"] || !links["https://mat/mid1"] || !links["https://mat/mid2"] {
		t.Errorf("phase 1 must pick by relevance within the category, got %v", links)
	}
}

func TestSelectBlended_SmallCategoryTakesAllAvailable(t *testing.T) {
	tax := []sources.Category{{Name: "materials"}, {Name: "ev"}}
	scored := []Scored{
		makeScored("materials", "https://mat/1", 50, 50),
		makeScored("ev", "https://ev/1", 60, 60),
		makeScored("ev", "https://ev/2", 70, 70),
	}

	selected := SelectBlended(scored, tax, 50, 3)
	if len(selected) != 3 {
		t.Errorf("categories with fewer than the minimum contribute what they have, got %d", len(selected))
	}
}

func TestSelectBlended_NoDoubleCounting(t *testing.T) {
	tax := []sources.Category{{Name: "materials"}}
	scored := []Scored{
		makeScored("materials", "https://mat/same", 90, 90),
		makeScored("materials", "https://mat/same", 80, 80),
		makeScored("materials", "https://mat/other", 70, 70),
	}

	selected := SelectBlended(scored, tax, 50, 3)
	seen := map[string]int{}
	for _, s := range selected {
		seen[s.Link]++
	}
	if seen["https://mat/same"] != 1 {
		t.Errorf("link selected %d times, selection must be keyed by link", seen["https://mat/same"])
	}
}

func TestSelectBlended_ResultOrderedByFinal(t *testing.T) {
	tax := []sources.Category{{Name: "materials"}, {Name: "ev"}}
	scored := []Scored{
		makeScored("materials", "https://mat/1", 30, 30),
		makeScored("ev", "https://ev/1", 90, 90),
		makeScored("materials", "https://mat/2", 20, 20),
		makeScored("ev", "https://ev/2", 60, 60),
	}

	selected := SelectBlended(scored, tax, 50, 3)
	for i := 1; i < len(selected); i++ {
		if selected[i].Final > selected[i-1].Final {
			t.Fatalf("selection not in final rank order: %v before %v",
				selected[i-1].Final, selected[i].Final)
		}
	}
}
