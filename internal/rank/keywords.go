package rank

import (
	"regexp"
	"strings"
)

// DefaultRelatedKeywordLimit caps the keywords derived from a note for relatedness.
const DefaultRelatedKeywordLimit = 12

var (
	wordTokenRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_-]{2,}`)
	cjkTokenRe  = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,}`)
)

// ExtractKeywords returns up to limit tokens from text: lowercase words of at
// least three characters, then CJK runs (runs longer than four characters are
// split into bigrams). Text with no tokens yields the whitespace-collapsed text.
func ExtractKeywords(text string, limit int) []string {
	if text == "" || limit <= 0 {
		return nil
	}
	tokens := wordTokenRe.FindAllString(strings.ToLower(text), -1)

	if len(tokens) < limit {
	blocks:
		for _, block := range cjkTokenRe.FindAllString(text, -1) {
			if len(tokens) >= limit {
				break
			}
			runes := []rune(block)
			if len(runes) <= 4 {
				tokens = append(tokens, block)
				continue
			}
			for i := 0; i < len(runes)-1; i++ {
				tokens = append(tokens, string(runes[i:i+2]))
				if len(tokens) >= limit {
					break blocks
				}
			}
		}
	}

	if len(tokens) == 0 {
		if cleaned := collapse(text); cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}

// DedupeKeywords trims items, drops empty and case-insensitive duplicates and
// stops at limit.
func DedupeKeywords(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lower := strings.ToLower(item)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// RelatedKeywords derives the keyword query used to find notes related to c:
// its tags, then tokens from the title, short title and summary, and the first
// content line when fewer than six tokens were found.
func RelatedKeywords(c *Candidate, limit int) []string {
	if limit <= 0 {
		limit = DefaultRelatedKeywordLimit
	}
	tokens := make([]string, 0, len(c.Tags)+18)
	tokens = append(tokens, c.Tags...)
	tokens = append(tokens, ExtractKeywords(c.Title, 4)...)
	tokens = append(tokens, ExtractKeywords(c.ShortTitle, 4)...)
	tokens = append(tokens, ExtractKeywords(c.Summary, 6)...)
	if len(tokens) < 6 {
		tokens = append(tokens, ExtractKeywords(FirstLine(c.Body), 6)...)
	}
	return DedupeKeywords(tokens, limit)
}

// FirstLine returns the first non-blank line of text, trimmed.
func FirstLine(text string) string {
	for line := range strings.Lines(text) {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return strings.TrimSpace(text)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
