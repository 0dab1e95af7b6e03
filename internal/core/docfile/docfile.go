// Package docfile loads and saves checklist documents, translating between
// the on-disk ASCII bracket form ("[ ]", "[x]") and the live symbolic form
// ("□", "✔"). The translation is lossless: load-then-save reproduces the
// original bytes exactly, modulo the token swap itself.
package docfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/pattern"
)

// Codec converts document text between its two state-token forms.
type Codec struct {
	states *pattern.StateSet
}

// NewCodec builds a codec for the configured state set.
func NewCodec(states *pattern.StateSet) *Codec {
	return &Codec{states: states}
}

// ToLive rewrites every bracketed state token into its symbolic marker.
// Lines that are not todo items pass through untouched.
func (c *Codec) ToLive(text string) string {
	return c.convert(text, true)
}

// ToDisk rewrites every symbolic marker back into its bracket token.
func (c *Codec) ToDisk(text string) string {
	return c.convert(text, false)
}

func (c *Codec) convert(text string, toLive bool) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m, ok := c.states.MatchTodo(line)
		if !ok || m.Bracketed != toLive {
			continue
		}

		token := m.State.Marker
		if !toLive {
			token = "[" + string(m.State.Char) + "]"
		}
		lines[i] = line[:m.TokenStart] + token + line[m.TokenEnd:]
	}
	return strings.Join(lines, "\n")
}

// Load reads the file at path and returns a document in live form.
func Load(path string, states *pattern.StateSet) (*diff.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := diff.NewDocument(NewCodec(states).ToLive(string(data)))
	doc.Path = path
	return doc, nil
}

// Save writes the document back to its path in on-disk form. On success
// the document is marked clean; on failure the error is surfaced and the
// document stays marked modified and remains usable.
func Save(doc *diff.Document, states *pattern.StateSet) error {
	text := NewCodec(states).ToDisk(doc.Text())

	if err := os.WriteFile(doc.Path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	doc.Modified = false
	return nil
}
