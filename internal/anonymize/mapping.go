package anonymize

// Entry is one placeholder and the original text it replaced.
type Entry struct {
	Placeholder string
	Original    string
}

// Mapping is the insertion-ordered placeholder→original table produced by
// a single Anonymize call. The zero value is an empty mapping.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// Len returns the number of placeholders.
func (m Mapping) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in insertion order.
func (m Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m Mapping) lookup(placeholder string) (string, bool) {
	i, ok := m.index[placeholder]
	if !ok {
		return "", false
	}
	return m.entries[i].Original, true
}

func (m Mapping) has(placeholder string) bool {
	_, ok := m.lookup(placeholder)
	return ok
}

// set appends a placeholder, or overwrites the original if the placeholder
// is already present (its position is kept).
func (m *Mapping) set(placeholder, original string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[placeholder]; ok {
		m.entries[i].Original = original
		return
	}
	m.index[placeholder] = len(m.entries)
	m.entries = append(m.entries, Entry{Placeholder: placeholder, Original: original})
}

// Merge copies every entry of other into m.
// Used when several texts are anonymized separately and sent in one prompt.
func (m *Mapping) Merge(other Mapping) {
	for _, e := range other.entries {
		m.set(e.Placeholder, e.Original)
	}
}
