// Package diff represents text edits as hunks and applies batches of hunks
// to an in-memory document atomically. All columns are byte offsets; the
// engine never splits a multi-byte sequence because hunk producers derive
// their columns from the same byte convention.
package diff

import "strings"

// Document is an in-memory text buffer addressed by line.
type Document struct {
	Path     string
	Modified bool

	lines           []string
	trailingNewline bool
	anchors         []*Anchor
}

// NewDocument builds a document from raw text, remembering whether the text
// ended with a newline so Text round-trips exactly.
func NewDocument(text string) *Document {
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return &Document{
		lines:           strings.Split(text, "\n"),
		trailingNewline: trailing,
	}
}

// Text reassembles the document into a single string.
func (d *Document) Text() string {
	out := strings.Join(d.lines, "\n")
	if d.trailingNewline {
		out += "\n"
	}
	return out
}

// Line returns the line at the given 0-based row. The empty string is
// returned for rows outside the document.
func (d *Document) Line(row int) string {
	if row < 0 || row >= len(d.lines) {
		return ""
	}
	return d.lines[row]
}

// Lines returns the backing line slice. Callers must treat it as read-only;
// all mutation goes through Apply and ApplyDiff.
func (d *Document) Lines() []string { return d.lines }

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int { return len(d.lines) }
