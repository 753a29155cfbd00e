package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Source tells where a Result came from.
type Source string

// Sources.
const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

var errUnparsable = errors.New("unparsable completion")

// Result is the metadata extracted from one note.
type Result struct {
	ShortTitle  string
	Title       string
	Category    string
	Tags        []string
	Summary     string
	Entities    map[string][]string
	Sensitivity note.Sensitivity
}

// Meta converts the result to note metadata.
func (r Result) Meta() note.Metadata {
	return note.Metadata{
		Title:       r.Title,
		ShortTitle:  r.ShortTitle,
		Category:    r.Category,
		Summary:     r.Summary,
		Tags:        r.Tags,
		Entities:    r.Entities,
		Sensitivity: r.Sensitivity,
	}
}

// value converts the result to a tree so placeholders can be restored
// uniformly, whichever path produced it.
func (r Result) value() anonymize.Value {
	entities := make(anonymize.Object, len(r.Entities))
	for k, v := range r.Entities {
		entities[k] = anonymize.ValueOf(v)
	}
	return anonymize.Object{
		"short_title": anonymize.Text(r.ShortTitle),
		"title":       anonymize.Text(r.Title),
		"category":    anonymize.Text(r.Category),
		"tags":        anonymize.ValueOf(r.Tags),
		"summary":     anonymize.Text(r.Summary),
		"entities":    entities,
		"sensitivity": anonymize.Text(string(r.Sensitivity)),
	}
}

// restore returns a copy of r with every placeholder replaced.
func (r Result) restore(m anonymize.Mapping) Result {
	if m.Len() == 0 {
		return r
	}
	restored, err := decodeResult(anonymize.RestoreValue(r.value(), m).Any())
	if err != nil {
		// value() always yields a decodable tree.
		return r
	}
	return restored
}

// ParseJSONObject extracts the outermost {...} span from a model reply and
// decodes it. Replies often wrap JSON in prose or code fences.
func ParseJSONObject(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("%w: no JSON object", errUnparsable)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", errUnparsable, err)
	}
	return obj, nil
}

// decodeResult validates the shape of an analysis reply. Missing or wrongly
// typed keys make the whole reply unusable; nothing is merged partially.
func decodeResult(v any) (Result, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Result{}, fmt.Errorf("%w: not an object", errUnparsable)
	}

	var r Result
	var err error
	if r.Title, err = requiredString(obj, "title"); err != nil {
		return Result{}, err
	}
	if r.Category, err = requiredString(obj, "category"); err != nil {
		return Result{}, err
	}
	if r.Summary, err = requiredString(obj, "summary"); err != nil {
		return Result{}, err
	}
	if r.Tags, err = stringList(obj["tags"], "tags", true); err != nil {
		return Result{}, err
	}
	if r.ShortTitle, err = optionalString(obj, "short_title"); err != nil {
		return Result{}, err
	}
	sensitivity, err := optionalString(obj, "sensitivity")
	if err != nil {
		return Result{}, err
	}
	r.Sensitivity = normalizeSensitivity(sensitivity)
	if r.Entities, err = entityGroups(obj["entities"]); err != nil {
		return Result{}, err
	}
	return r, nil
}

func requiredString(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: missing %q", errUnparsable, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", errUnparsable, key, raw)
	}
	return strings.TrimSpace(s), nil
}

func optionalString(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", errUnparsable, key, raw)
	}
	return strings.TrimSpace(s), nil
}

// stringList accepts a list of strings. A single string is accepted as a
// one-element list.
func stringList(raw any, key string, required bool) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		if required {
			return nil, fmt.Errorf("%w: missing %q", errUnparsable, key)
		}
		return nil, nil
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}, nil
		}
		return []string{}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q holds %T, want string", errUnparsable, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q is %T, want list", errUnparsable, key, raw)
	}
}

// entityGroups accepts {"group": ["v", ...]} or {"group": "v"}.
func entityGroups(raw any) (map[string][]string, error) {
	if raw == nil {
		return map[string][]string{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want object", errUnparsable, "entities", raw)
	}
	out := make(map[string][]string, len(obj))
	for k, v := range obj {
		values, err := stringList(v, "entities."+k, false)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			out[k] = values
		}
	}
	return out, nil
}

func normalizeSensitivity(s string) note.Sensitivity {
	switch strings.ToLower(s) {
	case "":
		return ""
	case string(note.SensitivityHigh), "critical":
		return note.SensitivityHigh
	default:
		return note.SensitivityLow
	}
}
