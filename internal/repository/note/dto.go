package note

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Hash field names.
const (
	fieldContent     = "content"
	fieldFolder      = "folder"
	fieldTitle       = "title"
	fieldShortTitle  = "short_title"
	fieldCategory    = "category"
	fieldSummary     = "summary"
	fieldTags        = "tags"
	fieldEntities    = "entities"
	fieldSensitivity = "sensitivity"
	fieldEmbedding   = "embedding"
	fieldCompleted   = "completed"
	fieldPinned      = "pinned"
	fieldPinnedAt    = "pinned_at"
	fieldCreatedAt   = "created_at"
	fieldUpdatedAt   = "updated_at"
)

// buildHashFields flattens a note into hash fields. Every field is written on
// every save, so a save fully replaces the stored record.
func buildHashFields(n *domnote.Note) (map[string]string, error) {
	s := n.State()
	tags, err := json.Marshal(nonNil(s.Meta.Tags))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	entities := s.Meta.Entities
	if entities == nil {
		entities = map[string][]string{}
	}
	ents, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}

	return map[string]string{
		fieldContent:     s.Content,
		fieldFolder:      s.Folder,
		fieldTitle:       s.Meta.Title,
		fieldShortTitle:  s.Meta.ShortTitle,
		fieldCategory:    s.Meta.Category,
		fieldSummary:     s.Meta.Summary,
		fieldTags:        string(tags),
		fieldEntities:    string(ents),
		fieldSensitivity: string(s.Meta.Sensitivity),
		fieldEmbedding:   encodeVector(s.Embedding),
		fieldCompleted:   formatBool(s.Completed),
		fieldPinned:      formatBool(s.Pinned),
		fieldPinnedAt:    formatTime(s.PinnedAt),
		fieldCreatedAt:   formatTime(s.CreatedAt),
		fieldUpdatedAt:   formatTime(s.UpdatedAt),
	}, nil
}

// parseHashFields rebuilds a note from its hash.
func parseHashFields(id string, m map[string]string) (domnote.Note, error) {
	s := domnote.State{
		ID:      id,
		Content: m[fieldContent],
		Folder:  m[fieldFolder],
		Meta: domnote.Metadata{
			Title:       m[fieldTitle],
			ShortTitle:  m[fieldShortTitle],
			Category:    m[fieldCategory],
			Summary:     m[fieldSummary],
			Sensitivity: domnote.Sensitivity(m[fieldSensitivity]),
		},
		Completed: m[fieldCompleted] == "1",
		Pinned:    m[fieldPinned] == "1",
	}

	if raw := m[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Meta.Tags); err != nil {
			return domnote.Note{}, fmt.Errorf("note %s: parse tags: %w", id, err)
		}
	}
	if raw := m[fieldEntities]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Meta.Entities); err != nil {
			return domnote.Note{}, fmt.Errorf("note %s: parse entities: %w", id, err)
		}
	}
	vec, err := decodeVector(m[fieldEmbedding])
	if err != nil {
		return domnote.Note{}, fmt.Errorf("note %s: %w", id, err)
	}
	s.Embedding = vec

	for field, dst := range map[string]*time.Time{
		fieldPinnedAt:  &s.PinnedAt,
		fieldCreatedAt: &s.CreatedAt,
		fieldUpdatedAt: &s.UpdatedAt,
	} {
		if *dst, err = parseTime(m[field]); err != nil {
			return domnote.Note{}, fmt.Errorf("note %s: parse %s: %w", id, field, err)
		}
	}

	return domnote.Reconstruct(s), nil
}

// encodeVector serializes []float32 as base64 of little-endian float32s. Text
// encoding keeps the field safe for drivers that store hashes as JSON.
func encodeVector(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeVector(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("decode embedding: len=%d (not multiple of 4)", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
