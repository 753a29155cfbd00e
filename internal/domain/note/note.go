package note

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxContentSize is the maximum note content size in bytes.
const MaxContentSize = 163840 // 160KB

// Sensitivity classifies how much secret material a note holds.
type Sensitivity string

// Sensitivity levels.
const (
	SensitivityLow  Sensitivity = "low"
	SensitivityHigh Sensitivity = "high"
)

// Metadata is the AI-derived or user-supplied description of a note.
type Metadata struct {
	Title       string
	ShortTitle  string
	Category    string
	Summary     string
	Tags        []string
	Entities    map[string][]string
	Sensitivity Sensitivity
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	m.Tags = slices.Clone(m.Tags)
	if m.Entities != nil {
		entities := make(map[string][]string, len(m.Entities))
		for k, v := range m.Entities {
			entities[k] = slices.Clone(v)
		}
		m.Entities = entities
	}
	return m
}

// Note is the note aggregate.
type Note struct {
	id        string
	content   string
	folder    string
	meta      Metadata
	embedding []float32
	completed bool
	pinned    bool
	pinnedAt  time.Time
	createdAt time.Time
	updatedAt time.Time
}

// State is the flat form of a Note used by storage.
type State struct {
	ID        string
	Content   string
	Folder    string
	Meta      Metadata
	Embedding []float32
	Completed bool
	Pinned    bool
	PinnedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewID returns a fresh note identifier.
func NewID() string { return uuid.NewString() }

// New validates and creates a Note.
func New(id, content, folder string, meta Metadata, now time.Time) (Note, error) {
	if id == "" {
		return Note{}, fmt.Errorf("note ID is required")
	}
	if err := validateContent(content); err != nil {
		return Note{}, err
	}
	return Note{
		id:        id,
		content:   content,
		folder:    strings.TrimSpace(folder),
		meta:      meta.Clone(),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct creates a Note without validation (storage hydration).
func Reconstruct(s State) Note {
	return Note{
		id:        s.ID,
		content:   s.Content,
		folder:    s.Folder,
		meta:      s.Meta,
		embedding: s.Embedding,
		completed: s.Completed,
		pinned:    s.Pinned,
		pinnedAt:  s.PinnedAt,
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
}

// State returns the flat form of the note.
func (n *Note) State() State {
	return State{
		ID:        n.id,
		Content:   n.content,
		Folder:    n.folder,
		Meta:      n.meta.Clone(),
		Embedding: n.embedding,
		Completed: n.completed,
		Pinned:    n.pinned,
		PinnedAt:  n.pinnedAt,
		CreatedAt: n.createdAt,
		UpdatedAt: n.updatedAt,
	}
}

// ID returns the note identifier.
func (n *Note) ID() string { return n.id }

// Content returns the plaintext body.
func (n *Note) Content() string { return n.content }

// Folder returns the folder path, possibly empty.
func (n *Note) Folder() string { return n.folder }

// Meta returns the note metadata.
func (n *Note) Meta() Metadata { return n.meta }

// Embedding returns the embedding vector, nil if never computed.
func (n *Note) Embedding() []float32 { return n.embedding }

// Completed reports whether the note is marked done.
func (n *Note) Completed() bool { return n.completed }

// Pinned reports whether the note is pinned.
func (n *Note) Pinned() bool { return n.pinned }

// PinnedAt returns when the note was last pinned.
func (n *Note) PinnedAt() time.Time { return n.pinnedAt }

// CreatedAt returns the creation time.
func (n *Note) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns the last modification time.
func (n *Note) UpdatedAt() time.Time { return n.updatedAt }

// SetContent replaces the body.
func (n *Note) SetContent(content string, now time.Time) error {
	if err := validateContent(content); err != nil {
		return err
	}
	n.content = content
	n.updatedAt = now
	return nil
}

// SetMeta replaces the metadata.
func (n *Note) SetMeta(m Metadata, now time.Time) {
	n.meta = m.Clone()
	n.updatedAt = now
}

// SetFolder moves the note.
func (n *Note) SetFolder(folder string, now time.Time) {
	n.folder = strings.TrimSpace(folder)
	n.updatedAt = now
}

// SetEmbedding stores a new vector. A nil vector clears it.
func (n *Note) SetEmbedding(v []float32) { n.embedding = v }

// SetCompleted marks the note done or not.
func (n *Note) SetCompleted(done bool, now time.Time) {
	n.completed = done
	n.updatedAt = now
}

// SetPinned pins or unpins the note. Re-pinning refreshes the pin time.
func (n *Note) SetPinned(pinned bool, now time.Time) {
	n.pinned = pinned
	if pinned {
		n.pinnedAt = now
	} else {
		n.pinnedAt = time.Time{}
	}
	n.updatedAt = now
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	return nil
}
