// Package anonymize replaces sensitive substrings with opaque placeholders
// before text leaves the process, and restores them afterwards.
package anonymize

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PlaceholderPrefix starts every placeholder token.
const PlaceholderPrefix = "ANON_"

var defaultDetectors = sync.OnceValue(func() []Detector {
	return Compile(DefaultSpecs(), nil)
})

// Anonymizer runs the detector chain. It holds no per-call state and is safe
// for concurrent use.
type Anonymizer struct {
	detectors []Detector
	random    io.Reader
	counter   *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates an Anonymizer with the built-in detector chain.
func New(logger *zap.Logger) *Anonymizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Anonymizer{
		detectors: defaultDetectors(),
		random:    rand.Reader,
		logger:    logger,
	}
}

// WithDetectors replaces the detector chain.
func (a *Anonymizer) WithDetectors(detectors []Detector) *Anonymizer {
	a.detectors = detectors
	return a
}

// WithMetrics attaches a counter vec labelled by "detector".
func (a *Anonymizer) WithMetrics(counter *prometheus.CounterVec) *Anonymizer {
	a.counter = counter
	return a
}

// WithRandom overrides the placeholder entropy source.
func (a *Anonymizer) WithRandom(r io.Reader) *Anonymizer {
	a.random = r
	return a
}

// Anonymize replaces every accepted match with a fresh placeholder.
// Detectors run in order, each over the output of the previous one.
func (a *Anonymizer) Anonymize(text string) (string, Mapping) {
	var m Mapping
	out := text
	for i := range a.detectors {
		out = a.apply(&a.detectors[i], out, &m)
	}
	return out, m
}

// DetectSensitive reports whether any detector accepts a match in text.
func (a *Anonymizer) DetectSensitive(text string) bool {
	for i := range a.detectors {
		d := &a.detectors[i]
		for _, loc := range findOutsidePlaceholders(d, text) {
			if d.accepts(text[loc[0]:loc[1]]) {
				return true
			}
		}
	}
	return false
}

func (a *Anonymizer) apply(d *Detector, text string, m *Mapping) string {
	locs := findOutsidePlaceholders(d, text)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	last, replaced := 0, 0
	for _, loc := range locs {
		candidate := text[loc[0]:loc[1]]
		if !d.accepts(candidate) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(a.newPlaceholder(m, candidate))
		last = loc[1]
		replaced++
	}
	if replaced == 0 {
		return text
	}
	b.WriteString(text[last:])

	if a.counter != nil {
		a.counter.WithLabelValues(d.name).Add(float64(replaced))
	}
	return b.String()
}

// findOutsidePlaceholders runs d over the gaps between placeholder tokens
// already present in text, so no match can contain or cross a placeholder.
// Offsets are relative to text.
func findOutsidePlaceholders(d *Detector, text string) [][]int {
	spans := placeholderSpanRe.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return d.find(text)
	}

	var out [][]int
	gapStart := 0
	for _, span := range append(spans, []int{len(text), len(text)}) {
		if span[0] > gapStart {
			for _, loc := range d.find(text[gapStart:span[0]]) {
				out = append(out, []int{gapStart + loc[0], gapStart + loc[1]})
			}
		}
		gapStart = span[1]
	}
	return out
}

func (a *Anonymizer) newPlaceholder(m *Mapping, original string) string {
	var buf [4]byte
	for attempt := 0; ; attempt++ {
		var suffix string
		if _, err := io.ReadFull(a.random, buf[:]); err != nil {
			a.logger.Warn("Placeholder entropy unavailable", zap.Error(err))
			suffix = fmt.Sprintf("%08x", uint32(m.Len()+attempt))
		} else {
			suffix = hex.EncodeToString(buf[:])
		}
		p := PlaceholderPrefix + suffix
		if !m.has(p) {
			m.set(p, original)
			return p
		}
	}
}

// Restore substitutes every placeholder in text with its original.
// Entries are applied newest first.
func Restore(text string, m Mapping) string {
	if m.Len() == 0 {
		return text
	}
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		text = strings.ReplaceAll(text, e.Placeholder, e.Original)
	}
	return text
}
