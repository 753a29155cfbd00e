package rank

import (
	"slices"
	"testing"
)

func TestRelated_ExcludesSelfAndReportsMode(t *testing.T) {
	x := &Candidate{
		ID:        "x",
		Title:     "Go concurrency patterns",
		Tags:      []string{"golang"},
		Embedding: []float32{1, 0},
	}
	candidates := []Candidate{
		*x,
		{ID: "kw", Body: "notes about golang channels", Embedding: []float32{0, 1}},
		{ID: "sem", Body: "unrelated words", Embedding: []float32{0.9, 0.1}},
		{ID: "none", Body: "shopping list"},
	}

	got := Related(x, candidates, 0.2, 0, 10)

	if got.Mode != ModeSemantic {
		t.Errorf("expected %q, got %q", ModeSemantic, got.Mode)
	}
	if got.Total != 2 {
		t.Errorf("expected total 2, got %d", got.Total)
	}
	if want := []string{"kw", "sem"}; !slices.Equal(ids(got.Items), want) {
		t.Errorf("expected %v, got %v", want, ids(got.Items))
	}
}

func TestRelated_KeywordAndSemanticHitIsKeywordMode(t *testing.T) {
	x := &Candidate{ID: "x", Tags: []string{"budget"}, Embedding: []float32{1, 0}}
	candidates := []Candidate{
		*x,
		{ID: "a", Title: "Budget review", Embedding: []float32{1, 0}},
		{ID: "far", Title: "Holiday photos", Embedding: []float32{0, 1}},
	}

	got := Related(x, candidates, 0.2, 0, 10)

	if len(got.Items) != 1 || got.Items[0].Candidate.ID != "a" {
		t.Fatalf("expected only a, got %v", ids(got.Items))
	}
	if got.Items[0].MatchType != MatchKeywordSemantic {
		t.Errorf("expected %q, got %q", MatchKeywordSemantic, got.Items[0].MatchType)
	}
	if got.Mode != ModeKeyword {
		t.Errorf("expected %q, got %q", ModeKeyword, got.Mode)
	}
}

func TestRelated_KeywordModeWithoutEmbedding(t *testing.T) {
	x := &Candidate{ID: "x", Tags: []string{"travel"}}
	candidates := []Candidate{
		{ID: "a", Title: "Travel checklist"},
		{ID: "b", Title: "Travel budget"},
		{ID: "c", Title: "Recipes"},
	}

	got := Related(x, candidates, 0.2, 0, 1)

	if got.Mode != ModeKeyword {
		t.Errorf("expected %q, got %q", ModeKeyword, got.Mode)
	}
	if got.Total != 2 {
		t.Errorf("expected total 2, got %d", got.Total)
	}
	if len(got.Items) != 1 || got.Items[0].Candidate.ID != "a" {
		t.Errorf("expected [a], got %v", ids(got.Items))
	}
}

func TestRelated_NoFallback(t *testing.T) {
	x := &Candidate{ID: "x", Tags: []string{"alpha"}, Embedding: []float32{1, 0}}
	candidates := []Candidate{{ID: "far", Embedding: []float32{0, 1}}}

	got := Related(x, candidates, 0.2, 0, 5)

	if len(got.Items) != 0 || got.Total != 0 {
		t.Errorf("expected nothing, got %v (total %d)", ids(got.Items), got.Total)
	}
	if got.Mode != ModeKeyword {
		t.Errorf("expected %q, got %q", ModeKeyword, got.Mode)
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"words lowercased", "Deploy the API-Gateway v2", 6, []string{"deploy", "the", "api-gateway"}},
		{"limit", "one two three four five six seven", 4, []string{"one", "two", "three", "four"}},
		{"cjk bigrams", "Hello World 机器学习很有趣", 6, []string{"hello", "world", "机器", "器学", "学习", "习很"}},
		{"short cjk block", "短文本", 6, []string{"短文本"}},
		{"fallback to text", "  !!  ?? ", 6, []string{"!! ??"}},
		{"empty", "", 6, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractKeywords(tt.text, tt.limit); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDedupeKeywords(t *testing.T) {
	got := DedupeKeywords([]string{" Go ", "go", "", "Rust", "GO", "zig"}, 2)
	if want := []string{"Go", "Rust"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRelatedKeywords(t *testing.T) {
	tests := []struct {
		name  string
		c     *Candidate
		limit int
		want  []string
	}{
		{
			name: "title, summary and tags",
			c: &Candidate{
				Tags:    []string{"infra", "Kubernetes"},
				Title:   "Cluster upgrade runbook for kubernetes",
				Summary: "Steps to drain nodes",
				Body:    "never used",
			},
			want: []string{"infra", "Kubernetes", "cluster", "upgrade", "runbook", "for", "steps", "drain", "nodes"},
		},
		{
			name: "falls back to first content line",
			c:    &Candidate{Body: "\n\n  first line words here\nsecond line"},
			want: []string{"first", "line", "words", "here"},
		},
		{
			name:  "limit",
			c:     &Candidate{Tags: []string{"a1", "b2", "c3"}},
			limit: 2,
			want:  []string{"a1", "b2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelatedKeywords(tt.c, tt.limit); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n   \n  hello  \nworld"); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	if got := FirstLine("  \n "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
