package rank

// RelatedMode reports how related notes were found.
type RelatedMode string

// Related modes.
const (
	ModeKeyword  RelatedMode = "keyword"
	ModeSemantic RelatedMode = "semantic"
)

// RelatedResult is the outcome of Related.
type RelatedResult struct {
	Items []Scored
	Total int
	Mode  RelatedMode
}

// Related ranks candidates against the note x using keywords derived from x
// and x's own embedding. x is never part of its own result. Unlike Rank there
// is no semantic-only fallback.
func Related(x *Candidate, candidates []Candidate, threshold float64, keywordLimit, limit int) RelatedResult {
	keywords := RelatedKeywords(x, keywordLimit)
	r := newRanker(Query{Keywords: keywords, Embedding: x.Embedding, Threshold: threshold})

	out := make([]Scored, 0, len(candidates))
	usedSemantic := false
	for i := range candidates {
		c := &candidates[i]
		if c.ID == x.ID {
			continue
		}
		s, _, ok := r.score(c)
		if !ok {
			continue
		}
		// Only a note that got in without any keyword hit makes the result semantic.
		if s.MatchType == MatchSemantic {
			usedSemantic = true
		}
		out = append(out, s)
	}

	Sort(out)
	items, total := Page(out, limit, 0)

	mode := ModeKeyword
	if usedSemantic {
		mode = ModeSemantic
	}
	return RelatedResult{Items: items, Total: total, Mode: mode}
}
