package note

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen   = 80
	fallbackIdea  = "idea"
	summaryCutLen = 120
)

var anonTagRe = regexp.MustCompile(`(?i)anon_[0-9a-f]{8}`)

// NormalizeTags trims tags and drops empty ones, case-insensitive duplicates
// and anything that still carries a placeholder.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || anonTagRe.MatchString(t) {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizeCategories lowercases and de-duplicates category keys. An empty
// result falls back to defaults.
func NormalizeCategories(categories, defaults []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return slices.Clone(defaults)
	}
	return out
}

// FallbackCategory prefers "idea", else the first allowed category.
func FallbackCategory(allowed []string) string {
	if len(allowed) == 0 || slices.Contains(allowed, fallbackIdea) {
		return fallbackIdea
	}
	return allowed[0]
}

// SelectCategory returns the override if allowed, then the analyzed category
// if allowed, then FallbackCategory.
func SelectCategory(allowed []string, override, analyzed string) string {
	for _, c := range []string{override, analyzed} {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && slices.Contains(allowed, c) {
			return c
		}
	}
	return FallbackCategory(allowed)
}

// GenerateTitle picks the analysis title, then the summary, then the first
// content line, cut to 80 characters.
func GenerateTitle(meta Metadata, content string) string {
	candidate := strings.TrimSpace(meta.Title)
	if candidate == "" {
		candidate = strings.TrimSpace(meta.Summary)
	}
	if candidate == "" {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			candidate, _, _ = strings.Cut(trimmed, "\n")
			candidate = strings.TrimRight(candidate, "\r")
		}
	}
	return Ellipsize(candidate, maxTitleLen)
}

// BuildShortTitle picks the first usable short title. An explicit title wins
// when preferTitle is set; otherwise the analysis short title comes first.
func BuildShortTitle(meta *Metadata, content, title string, preferTitle bool, maxLen int) string {
	var candidates []string
	if preferTitle && title != "" {
		candidates = append(candidates, title)
	}
	if meta != nil {
		if meta.ShortTitle != "" {
			candidates = append(candidates, meta.ShortTitle)
		}
		if !preferTitle && title != "" {
			candidates = append(candidates, title)
		}
		if meta.Title != "" {
			candidates = append(candidates, meta.Title)
		}
		if meta.Summary != "" {
			candidates = append(candidates, meta.Summary)
		}
	} else if !preferTitle && title != "" {
		candidates = append(candidates, title)
	}
	if len(candidates) == 0 && title != "" {
		candidates = append(candidates, title)
	}
	if line := FirstLine(content); line != "" {
		candidates = append(candidates, line)
	}

	for _, c := range candidates {
		if s := NormalizeShortTitle(c, maxLen); s != "" {
			return s
		}
	}
	return ""
}

// NormalizeShortTitle collapses whitespace and trims to maxLen characters,
// cutting back to the last word boundary when there is one.
func NormalizeShortTitle(s string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	trimmed := strings.TrimRight(string([]rune(cleaned)[:maxLen]), " ")
	if i := strings.LastIndex(trimmed, " "); i >= 0 {
		if head := strings.TrimRight(trimmed[:i], " "); head != "" {
			return head
		}
	}
	return trimmed
}

// SummaryOrContent returns summary, or the first 120 characters of content.
func SummaryOrContent(summary, content string) string {
	if summary != "" {
		return summary
	}
	return cut(content, summaryCutLen)
}

// EmbeddingSource builds the text embedded for a note. All inputs must
// already be anonymized.
func EmbeddingSource(content, title, summary string, tags []string) string {
	parts := []string{content}
	if title != "" {
		parts = append(parts, "Title: "+title)
	}
	if summary != "" {
		parts = append(parts, "Summary: "+summary)
	}
	if t := NormalizeTags(tags); len(t) > 0 {
		parts = append(parts, "Tags: "+strings.Join(t, ", "))
	}
	return strings.Join(parts, "\n")
}

// FirstLine returns the first non-blank line, trimmed.
func FirstLine(content string) string {
	for line := range strings.Lines(content) {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return strings.TrimSpace(content)
}

// Ellipsize cuts s to n characters, ending with "..." when shortened.
func Ellipsize(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return cut(s, n-3) + "..."
}

func cut(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
