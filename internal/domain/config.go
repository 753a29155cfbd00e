package domain

// NoteConfig holds the analysis and ranking knobs shared by the note services.
type NoteConfig struct {
	ShortTitleMaxLen    int
	Categories          []string
	SimilarityThreshold float64
	RelatedKeywordLimit int
	RelatedLimit        int
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultCategories are offered when the deployment configures none.
var DefaultCategories = []string{"credential", "work", "idea", "todo"}

// DefaultNoteConfig returns the defaults used when configuration is silent.
func DefaultNoteConfig() NoteConfig {
	return NoteConfig{
		ShortTitleMaxLen:    32,
		Categories:          append([]string(nil), DefaultCategories...),
		SimilarityThreshold: 0.2,
		RelatedKeywordLimit: 12,
		RelatedLimit:        6,
	}
}
