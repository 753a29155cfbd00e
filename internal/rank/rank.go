// Package rank orders notes against a query by blending keyword hits with
// embedding similarity. Keyword precision always dominates: a literal hit on
// the primary query term outranks any amount of semantic closeness.
package rank

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/vecnote/internal/vecmath"
)

// Score weights.
const (
	textMatchBonus   = 0.25
	extraMatchBonus  = 0.05
	directMatchBonus = 0.35
)

// MatchType explains why a candidate was included.
type MatchType string

// Match types.
const (
	MatchKeyword         MatchType = "keyword"
	MatchSemantic        MatchType = "semantic"
	MatchKeywordSemantic MatchType = "keyword+semantic"
)

// Candidate is the searchable projection of a note.
type Candidate struct {
	ID         string
	Title      string
	ShortTitle string
	Body       string
	Summary    string
	Tags       []string
	Entities   map[string][]string
	Embedding  []float32
}

// Query is a ranking request.
type Query struct {
	// Keywords in priority order. The first one is the primary term.
	Keywords []string
	// Embedding of the query. Nil disables semantic matching.
	Embedding []float32
	// Threshold is the minimum similarity for a semantic-only match.
	Threshold float64
}

// Scored is one ranked candidate.
type Scored struct {
	Candidate  *Candidate
	MatchType  MatchType
	Matched    []string
	Similarity float64
	Score      float64

	direct bool
}

// Rank scores every candidate and returns the included ones in rank order.
// When nothing matches and the query has an embedding, every candidate with
// an embedding is returned ranked by similarity alone.
func Rank(candidates []Candidate, q Query) []Scored {
	r := newRanker(q)

	out := make([]Scored, 0, len(candidates))
	for i := range candidates {
		s, _, ok := r.score(&candidates[i])
		if ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(q.Embedding) > 0 {
		for i := range candidates {
			c := &candidates[i]
			if !sameDim(q.Embedding, c.Embedding) {
				continue
			}
			sim := vecmath.Cosine(q.Embedding, c.Embedding)
			out = append(out, Scored{
				Candidate:  c,
				MatchType:  MatchSemantic,
				Matched:    []string{},
				Similarity: sim,
				Score:      sim,
			})
		}
	}

	Sort(out)
	return out
}

// Sort orders results by direct match, matched keyword count, keyword match,
// similarity and score, all descending. Full ties keep input order.
func Sort(results []Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		return less(&results[j], &results[i])
	})
}

// less reports whether a ranks strictly below b.
func less(a, b *Scored) bool {
	if a.direct != b.direct {
		return !a.direct
	}
	if len(a.Matched) != len(b.Matched) {
		return len(a.Matched) < len(b.Matched)
	}
	if at, bt := len(a.Matched) > 0, len(b.Matched) > 0; at != bt {
		return !at
	}
	if a.Similarity != b.Similarity {
		return a.Similarity < b.Similarity
	}
	return a.Score < b.Score
}

// Page slices ranked results and returns the total before slicing.
func Page(results []Scored, limit, offset int) ([]Scored, int) {
	total := len(results)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []Scored{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return results[offset:end], total
}

type ranker struct {
	keywords []string
	primary  string
	query    Query
}

func newRanker(q Query) *ranker {
	r := &ranker{keywords: q.Keywords, query: q}
	if len(q.Keywords) > 0 {
		r.primary = strings.ToLower(strings.TrimSpace(q.Keywords[0]))
	}
	return r
}

// score computes the result for c. semantic reports whether c passed the
// similarity threshold; ok reports whether c is included at all.
func (r *ranker) score(c *Candidate) (s Scored, semantic, ok bool) {
	matched := MatchingKeywords(c, r.keywords)
	textMatch := len(matched) > 0

	direct := false
	if r.primary != "" {
		for _, m := range matched {
			if strings.ToLower(m) == r.primary {
				direct = true
				break
			}
		}
	}

	var sim float64
	hasEmbedding := sameDim(r.query.Embedding, c.Embedding)
	if hasEmbedding {
		sim = vecmath.Cosine(r.query.Embedding, c.Embedding)
	}
	semantic = hasEmbedding && sim >= r.query.Threshold

	if !textMatch && !semantic {
		return Scored{}, semantic, false
	}

	score := sim
	if textMatch {
		score += textMatchBonus
	}
	if len(matched) > 1 {
		score += extraMatchBonus * float64(len(matched)-1)
	}
	if direct {
		score += directMatchBonus
	}

	mt := MatchSemantic
	switch {
	case textMatch && semantic:
		mt = MatchKeywordSemantic
	case textMatch:
		mt = MatchKeyword
	}

	return Scored{
		Candidate:  c,
		MatchType:  mt,
		Matched:    matched,
		Similarity: sim,
		Score:      score,
		direct:     direct,
	}, semantic, true
}

// sameDim reports whether both vectors are present with one dimensionality.
// A candidate with a mismatched vector is treated as having none.
func sameDim(q, c []float32) bool {
	return len(q) > 0 && len(q) == len(c)
}

// MatchingKeywords returns the keywords found in c's searchable text, trimmed,
// in input order, de-duplicated case-insensitively.
func MatchingKeywords(c *Candidate, keywords []string) []string {
	var matched []string
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		if contains(c, lower) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func contains(c *Candidate, lower string) bool {
	for _, field := range []string{c.Title, c.ShortTitle, c.Body, c.Summary} {
		if field != "" && strings.Contains(strings.ToLower(field), lower) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), lower) {
			return true
		}
	}
	for k, values := range c.Entities {
		if strings.Contains(strings.ToLower(k), lower) {
			return true
		}
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), lower) {
				return true
			}
		}
	}
	return false
}
