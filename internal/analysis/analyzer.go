// Package analysis derives note metadata and assistant answers from a
// completion model, with a deterministic fallback for every call.
//
// Text is anonymized before it is put into a prompt and every reply is
// restored before it is returned. Provider failures never surface as errors
// except where no fallback exists (taxonomy suggestions).
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/cluster"
	"github.com/kailas-cloud/vecnote/internal/domain"
	"github.com/kailas-cloud/vecnote/internal/domain/note"
	"github.com/kailas-cloud/vecnote/internal/metrics"
)

// Operation labels for fallback metrics and logs.
const (
	opAnalyze   = "analyze"
	opSearch    = "parse_search"
	opSummarize = "summarize"
	opAnswer    = "answer"
	opTaxonomy  = "taxonomy"
)

// Fallback reasons.
const (
	reasonDisabled   = "disabled"
	reasonProvider   = "provider_error"
	reasonEmpty      = "empty"
	reasonUnparsable = "unparsable"
)

const (
	answerFallbackLen    = 200
	summaryFallbackLen   = 400
	noMatchingNotes      = "No matching notes found."
	noNotesInPeriod      = "No notes found for the selected period."
	defaultShortTitleMax = 32
)

// Analyzer wires the anonymizer, the completion model and the heuristics.
type Analyzer struct {
	anon          *anonymize.Anonymizer
	completer     domain.Completer
	categories    []string
	shortTitleMax int
	logger        *zap.Logger
}

// New creates an Analyzer. A nil completer disables AI: every call takes the
// fallback path.
func New(anon *anonymize.Anonymizer, completer domain.Completer, cfg domain.NoteConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxLen := cfg.ShortTitleMaxLen
	if maxLen <= 0 {
		maxLen = defaultShortTitleMax
	}
	return &Analyzer{
		anon:          anon,
		completer:     completer,
		categories:    note.NormalizeCategories(cfg.Categories, domain.DefaultCategories),
		shortTitleMax: maxLen,
		logger:        logger,
	}
}

// Enabled reports whether a completion model is configured.
func (a *Analyzer) Enabled() bool { return a.completer != nil }

// Categories returns the allowed category keys.
func (a *Analyzer) Categories() []string { return a.categories }

// ShortTitleMax returns the configured short title length.
func (a *Analyzer) ShortTitleMax() int { return a.shortTitleMax }

// Anonymizer returns the anonymizer used for prompts.
func (a *Analyzer) Anonymizer() *anonymize.Anonymizer { return a.anon }

// Analysis is the outcome of Analyze.
type Analysis struct {
	// Result has every placeholder restored.
	Result Result
	// Anonymized is the same result before restoring; safe to embed.
	Anonymized Result
	// Text is the anonymized note content.
	Text    string
	Mapping anonymize.Mapping
	Source  Source
}

// Analyze extracts metadata from content. The model sees only anonymized
// text. Any failure, empty or malformed reply falls back to heuristics as a
// whole.
func (a *Analyzer) Analyze(ctx context.Context, content string) Analysis {
	text, mapping := a.anon.Anonymize(content)
	out := Analysis{Text: text, Mapping: mapping}

	if raw, ok := a.complete(ctx, opAnalyze, analyzePrompt(text, a.categories, a.shortTitleMax)); ok {
		obj, err := ParseJSONObject(raw)
		if err == nil {
			var r Result
			if r, err = decodeResult(obj); err == nil {
				out.Anonymized = r
				out.Result = r.restore(mapping)
				out.Source = SourceAI
				return out
			}
		}
		a.fallback(ctx, opAnalyze, reasonUnparsable, err)
	}

	r := Heuristic(a.anon, text, content, a.categories, a.shortTitleMax)
	out.Anonymized = r
	out.Result = r.restore(mapping)
	out.Source = SourceHeuristic
	return out
}

// SearchIntent is a parsed search query.
type SearchIntent struct {
	SemanticQuery string   `json:"semantic_query"`
	Keywords      []string `json:"keywords"`
	TimeStart     string   `json:"time_start,omitempty"`
	TimeEnd       string   `json:"time_end,omitempty"`
}

// ParseSearchQuery extracts the semantic query, keywords and an optional date
// range. The raw query is always the first keyword.
func (a *Analyzer) ParseSearchQuery(ctx context.Context, query string, now time.Time) SearchIntent {
	anonQuery, mapping := a.anon.Anonymize(query)

	var parsed map[string]any
	if raw, ok := a.complete(ctx, opSearch, searchPrompt(anonQuery, now)); ok {
		obj, err := ParseJSONObject(raw)
		if err != nil {
			a.fallback(ctx, opSearch, reasonUnparsable, err)
		}
		parsed = obj
	}

	intent := normalizeSearchIntent(parsed, anonQuery)
	return intent.restore(mapping)
}

func normalizeSearchIntent(parsed map[string]any, query string) SearchIntent {
	intent := SearchIntent{SemanticQuery: query}
	var keywords []string
	if parsed != nil {
		if s, _ := parsed["semantic_query"].(string); strings.TrimSpace(s) != "" {
			intent.SemanticQuery = strings.TrimSpace(s)
		}
		switch raw := parsed["keywords"].(type) {
		case []any:
			for _, item := range raw {
				if s := strings.TrimSpace(fmt.Sprint(item)); s != "" && item != nil {
					keywords = append(keywords, s)
				}
			}
		case string:
			if s := strings.TrimSpace(raw); s != "" {
				keywords = append(keywords, s)
			}
		}
		intent.TimeStart = dateOrEmpty(parsed["time_start"])
		intent.TimeEnd = dateOrEmpty(parsed["time_end"])
	}

	seen := make(map[string]struct{}, len(keywords)+1)
	for _, kw := range append([]string{query}, keywords...) {
		lower := strings.ToLower(kw)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		intent.Keywords = append(intent.Keywords, kw)
	}
	return intent
}

// dateOrEmpty keeps only well-formed YYYY-MM-DD dates.
func dateOrEmpty(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ""
	}
	return s
}

func (s SearchIntent) restore(m anonymize.Mapping) SearchIntent {
	if m.Len() == 0 {
		return s
	}
	tree := anonymize.RestoreValue(anonymize.Object{
		"semantic_query": anonymize.Text(s.SemanticQuery),
		"keywords":       anonymize.ValueOf(s.Keywords),
	}, m).Any().(map[string]any)

	out := s
	out.SemanticQuery, _ = tree["semantic_query"].(string)
	out.Keywords = out.Keywords[:0:0]
	for _, kw := range tree["keywords"].([]any) {
		out.Keywords = append(out.Keywords, kw.(string))
	}
	return out
}

// Summarize writes a short digest of notes from the last days.
func (a *Analyzer) Summarize(ctx context.Context, notes []string, days int) string {
	if len(notes) == 0 {
		return noNotesInPeriod
	}
	fallback := func() string {
		return fmt.Sprintf("Summary (%d days): ", days) + cutRunes(strings.Join(notes, "\n"), summaryFallbackLen) + "..."
	}
	if !a.Enabled() {
		a.fallback(ctx, opSummarize, reasonDisabled, nil)
		return fallback()
	}

	anonNotes, mapping := a.anonymizeAll(notes)
	raw, ok := a.complete(ctx, opSummarize, summarizePrompt(strings.Join(anonNotes, "\n"), days))
	if !ok {
		return fallback()
	}
	return anonymize.Restore(raw, mapping)
}

// Answer answers question from notes. Without a model it returns the start
// of the first note.
func (a *Analyzer) Answer(ctx context.Context, question string, notes []string) string {
	if len(notes) == 0 {
		return noMatchingNotes
	}
	fallback := cutRunes(notes[0], answerFallbackLen)
	if !a.Enabled() {
		a.fallback(ctx, opAnswer, reasonDisabled, nil)
		return fallback
	}

	anonQuestion, mapping := a.anon.Anonymize(question)
	anonNotes, notesMapping := a.anonymizeAll(notes)
	mapping.Merge(notesMapping)

	raw, ok := a.complete(ctx, opAnswer, answerPrompt(anonQuestion, anonNotes))
	if !ok {
		return fallback
	}
	return anonymize.Restore(raw, mapping)
}

// Taxonomy is a proposed category and folder layout for micro-clusters.
type Taxonomy struct {
	Categories []TaxonomyCategory `json:"categories"`
}

// TaxonomyCategory is one top-level category.
type TaxonomyCategory struct {
	Name    string           `json:"name"`
	Folders []TaxonomyFolder `json:"folders"`
}

// TaxonomyFolder is a folder path and the clusters filed under it.
type TaxonomyFolder struct {
	Name       string `json:"name"`
	ClusterIDs []int  `json:"cluster_ids"`
}

// SuggestTaxonomy asks the model to organize micro-clusters into categories
// and folders. There is no heuristic fallback: it fails with ErrAIDisabled or
// ErrCompletionProviderError.
func (a *Analyzer) SuggestTaxonomy(ctx context.Context, summaries []cluster.Summary) (Taxonomy, error) {
	if !a.Enabled() {
		return Taxonomy{}, domain.ErrAIDisabled
	}

	var mapping anonymize.Mapping
	anonSummaries := make([]cluster.Summary, len(summaries))
	for i, s := range summaries {
		titles := make([]string, len(s.RepresentativeTitles))
		for j, t := range s.RepresentativeTitles {
			var m anonymize.Mapping
			titles[j], m = a.anon.Anonymize(t)
			mapping.Merge(m)
		}
		anonSummaries[i] = cluster.Summary{ClusterID: s.ClusterID, RepresentativeTitles: titles, Count: s.Count}
	}
	payload, err := json.MarshalIndent(anonSummaries, "", "  ")
	if err != nil {
		return Taxonomy{}, fmt.Errorf("marshal clusters: %w", err)
	}

	res, err := a.completer.Complete(ctx, taxonomyPrompt(string(payload)))
	if err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %w", domain.ErrCompletionProviderError, err)
	}
	tax, err := decodeTaxonomy(res.Text)
	if err != nil {
		a.logger.Warn("Taxonomy reply unusable", zap.Error(err))
		return Taxonomy{}, fmt.Errorf("%w: %w", domain.ErrCompletionProviderError, err)
	}
	return tax.restore(mapping), nil
}

func decodeTaxonomy(raw string) (Taxonomy, error) {
	obj, err := ParseJSONObject(raw)
	if err != nil {
		return Taxonomy{}, err
	}
	if _, ok := obj["categories"].([]any); !ok {
		return Taxonomy{}, fmt.Errorf("%w: missing \"categories\" list", errUnparsable)
	}
	// Re-encode the extracted object so field types are checked by the decoder.
	buf, err := json.Marshal(obj)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %w", errUnparsable, err)
	}
	var tax Taxonomy
	if err := json.Unmarshal(buf, &tax); err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %w", errUnparsable, err)
	}
	return tax, nil
}

func (t Taxonomy) restore(m anonymize.Mapping) Taxonomy {
	for i := range t.Categories {
		c := &t.Categories[i]
		c.Name = anonymize.Restore(c.Name, m)
		for j := range c.Folders {
			c.Folders[j].Name = anonymize.Restore(c.Folders[j].Name, m)
		}
	}
	return t
}

// complete runs one prompt. ok is false when the caller must fall back.
func (a *Analyzer) complete(ctx context.Context, op, prompt string) (string, bool) {
	if a.completer == nil {
		a.fallback(ctx, op, reasonDisabled, nil)
		return "", false
	}
	res, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.fallback(ctx, op, reasonProvider, err)
		return "", false
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		a.fallback(ctx, op, reasonEmpty, nil)
		return "", false
	}
	return text, true
}

func (a *Analyzer) fallback(_ context.Context, op, reason string, err error) {
	metrics.AnalysisFallbacksTotal.WithLabelValues(op, reason).Inc()
	if reason == reasonDisabled {
		return
	}
	a.logger.Info("Completion fallback",
		zap.String("operation", op),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (a *Analyzer) anonymizeAll(texts []string) ([]string, anonymize.Mapping) {
	var mapping anonymize.Mapping
	out := make([]string, len(texts))
	for i, t := range texts {
		var m anonymize.Mapping
		out[i], m = a.anon.Anonymize(t)
		mapping.Merge(m)
	}
	return out, mapping
}

func cutRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
