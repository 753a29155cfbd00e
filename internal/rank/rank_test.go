package rank

import (
	"math"
	"slices"
	"testing"
)

func ids(results []Scored) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Candidate.ID
	}
	return out
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestRank_KeywordDominatesSimilarity(t *testing.T) {
	b := float32(math.Sqrt(1 - 0.81))
	candidates := []Candidate{
		{ID: "B", Title: "Quarterly offsite", Embedding: []float32{0.9, b}},
		{ID: "A", Title: "Q3 budget plan", Embedding: []float32{0, 1}},
	}

	got := Rank(candidates, Query{
		Keywords:  []string{"budget"},
		Embedding: []float32{1, 0},
		Threshold: 0.2,
	})

	if !slices.Equal(ids(got), []string{"A", "B"}) {
		t.Fatalf("expected [A B], got %v", ids(got))
	}
	if got[0].MatchType != MatchKeyword {
		t.Errorf("expected %q, got %q", MatchKeyword, got[0].MatchType)
	}
	if got[1].MatchType != MatchSemantic {
		t.Errorf("expected %q, got %q", MatchSemantic, got[1].MatchType)
	}
	if !near(got[1].Similarity, 0.9, 1e-6) {
		t.Errorf("expected similarity 0.9, got %v", got[1].Similarity)
	}
	if !slices.Equal(got[0].Matched, []string{"budget"}) {
		t.Errorf("unexpected matched keywords %v", got[0].Matched)
	}
}

func TestRank_EmptyWithoutKeywordHitOrEmbedding(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Title: "groceries", Embedding: []float32{1, 0}},
		{ID: "2", Body: "call mom"},
	}
	for _, kws := range [][]string{{"zebra"}, {"zebra", "unicorn"}} {
		if got := Rank(candidates, Query{Keywords: kws, Threshold: 0.2}); len(got) != 0 {
			t.Errorf("keywords %v: expected no results, got %v", kws, ids(got))
		}
	}
}

func TestRank_SemanticFallback(t *testing.T) {
	candidates := []Candidate{
		{ID: "low", Embedding: []float32{0.5, float32(math.Sqrt(0.75))}},
		{ID: "none"},
		{ID: "wrong-dim", Embedding: []float32{1, 0, 0}},
		{ID: "high", Embedding: []float32{0.8, 0.6}},
	}

	got := Rank(candidates, Query{
		Keywords:  []string{"nothing matches"},
		Embedding: []float32{1, 0},
		Threshold: 0.95,
	})

	if !slices.Equal(ids(got), []string{"high", "low"}) {
		t.Fatalf("expected [high low], got %v", ids(got))
	}
	for _, r := range got {
		if r.MatchType != MatchSemantic {
			t.Errorf("%s: expected %q, got %q", r.Candidate.ID, MatchSemantic, r.MatchType)
		}
		if len(r.Matched) != 0 {
			t.Errorf("%s: expected no matched keywords, got %v", r.Candidate.ID, r.Matched)
		}
		if !near(r.Score, r.Similarity, 1e-12) {
			t.Errorf("%s: score %v should equal similarity %v", r.Candidate.ID, r.Score, r.Similarity)
		}
	}
}

func TestRank_OrderingKey(t *testing.T) {
	candidates := []Candidate{
		{ID: "plan-only", Body: "a plan"},
		{ID: "plan-q3", Body: "plan for q3"},
		{ID: "budget", Summary: "Budget"},
	}

	got := Rank(candidates, Query{Keywords: []string{"budget", "plan", "q3"}})

	if want := []string{"budget", "plan-q3", "plan-only"}; !slices.Equal(ids(got), want) {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
}

func TestRank_Score(t *testing.T) {
	candidates := []Candidate{{ID: "1", Title: "Budget plan"}}

	got := Rank(candidates, Query{Keywords: []string{"budget", "plan"}})

	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if !near(got[0].Score, 0.25+0.05+0.35, 1e-9) {
		t.Errorf("unexpected score %v", got[0].Score)
	}
	if got[0].Similarity != 0 {
		t.Errorf("expected zero similarity, got %v", got[0].Similarity)
	}
}

func TestRank_KeywordAndSemantic(t *testing.T) {
	candidates := []Candidate{{ID: "1", Tags: []string{"travel"}, Embedding: []float32{1, 0}}}

	got := Rank(candidates, Query{Keywords: []string{"travel"}, Embedding: []float32{1, 0}, Threshold: 0.2})

	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].MatchType != MatchKeywordSemantic {
		t.Errorf("expected %q, got %q", MatchKeywordSemantic, got[0].MatchType)
	}
	if !near(got[0].Score, 1+0.25+0.35, 1e-9) {
		t.Errorf("unexpected score %v", got[0].Score)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Body: "shared word"},
		{ID: "second", Body: "shared word"},
		{ID: "third", Body: "shared word"},
	}

	got := Rank(candidates, Query{Keywords: []string{"shared"}})

	if want := []string{"first", "second", "third"}; !slices.Equal(ids(got), want) {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
}

func TestMatchingKeywords(t *testing.T) {
	c := &Candidate{
		Title:    "Budget",
		Tags:     []string{"Finance"},
		Entities: map[string][]string{"emails": {"alice@example.com"}},
	}

	got := MatchingKeywords(c, []string{"Budget", " budget ", "BUDGET", "", "finance", "alice@example.com", "emails", "missing"})

	if want := []string{"Budget", "finance", "alice@example.com", "emails"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPage(t *testing.T) {
	results := make([]Scored, 5)
	for i := range results {
		results[i] = Scored{Candidate: &Candidate{ID: string(rune('a' + i))}}
	}

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"first page", 2, 0, []string{"a", "b"}},
		{"last partial page", 2, 4, []string{"e"}},
		{"past the end", 2, 10, []string{}},
		{"zero limit", 0, 0, []string{}},
		{"negative offset", 1, -3, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total := Page(results, tt.limit, tt.offset)
			if total != 5 {
				t.Errorf("expected total 5, got %d", total)
			}
			if !slices.Equal(ids(page), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids(page))
			}
		})
	}
}
