package analysis

import (
	"regexp"
	"slices"
	"strings"

	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/domain/note"
)

const (
	heuristicTitleLen   = 60
	heuristicSummaryLen = 120
	heuristicTagLimit   = 6
)

// categoryRule maps a keyword pattern to a category. Rules are tried in order.
type categoryRule struct {
	category string
	re       *regexp.Regexp
}

var categoryRules = []categoryRule{
	{"credential", regexp.MustCompile(`token|password|passwd|pwd|secret|ssh|ip|credential`)},
	{"todo", regexp.MustCompile(`todo|to-do|task|next|remind|follow up|deadline`)},
	{"work", regexp.MustCompile(`project|meeting|review|weekly|progress|work`)},
}

var (
	tagWordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_-]{2,}`)
	tagHints  = []struct{ needle, tag string }{
		{"github", "github"},
		{"paper", "paper"},
		{"server", "server"},
		{"token", "secret"},
		{"password", "secret"},
	}
)

// HeuristicCategory classifies text with the keyword rule table, constrained
// to the allowed categories.
func HeuristicCategory(text string, allowed []string) string {
	lower := strings.ToLower(text)
	guess := "idea"
	for _, rule := range categoryRules {
		if rule.re.MatchString(lower) {
			guess = rule.category
			break
		}
	}
	if len(allowed) == 0 || slices.Contains(allowed, guess) {
		return guess
	}
	for _, c := range allowed {
		if strings.Contains(lower, c) {
			return c
		}
	}
	return allowed[0]
}

// HeuristicTags returns the category, hint tags and the first six words,
// lowercased, sorted and capped at six.
func HeuristicTags(text, category string) []string {
	lower := strings.ToLower(text)
	set := map[string]struct{}{category: {}}
	for _, h := range tagHints {
		if strings.Contains(lower, h.needle) {
			set[h.tag] = struct{}{}
		}
	}
	words := tagWordRe.FindAllString(text, heuristicTagLimit)
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	if len(tags) > heuristicTagLimit {
		tags = tags[:heuristicTagLimit]
	}
	return tags
}

// HeuristicSummary collapses whitespace and cuts to 120 characters.
func HeuristicSummary(text string) string {
	return note.Ellipsize(collapse(text), heuristicSummaryLen)
}

// HeuristicTitle collapses whitespace and cuts to 60 characters.
func HeuristicTitle(text string) string {
	return note.Ellipsize(collapse(text), heuristicTitleLen)
}

// HeuristicShortTitle normalizes the first non-blank line.
func HeuristicShortTitle(text string, maxLen int) string {
	return note.NormalizeShortTitle(note.FirstLine(text), maxLen)
}

// Heuristic builds a complete Result from text alone. Entities and
// sensitivity are judged on original, the text before anonymization, since
// placeholders hide exactly what they look for.
func Heuristic(a *anonymize.Anonymizer, text, original string, allowed []string, shortTitleMax int) Result {
	category := HeuristicCategory(text, allowed)
	sensitivity := note.SensitivityLow
	if a.DetectSensitive(original) {
		sensitivity = note.SensitivityHigh
	}
	return Result{
		ShortTitle:  HeuristicShortTitle(text, shortTitleMax),
		Title:       HeuristicTitle(text),
		Category:    category,
		Tags:        HeuristicTags(text, category),
		Summary:     HeuristicSummary(text),
		Entities:    a.ExtractEntities(original).Map(),
		Sensitivity: sensitivity,
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
