// Package parse builds the todo tree from a document's lines. Each parse
// pass produces a fresh TodoMap snapshot; items are never mutated in place.
// A state or text change is expressed as hunks, and the document is
// re-parsed after they land.
package parse

import "github.com/colonyops/tickdown/internal/core/textpos"

// NoParent marks an item without a parent.
const NoParent = -1

// MetaEntry is one @tag(value) annotation owned by an item.
type MetaEntry struct {
	Tag        string        `json:"tag"`
	Value      string        `json:"value"`
	Range      textpos.Range `json:"range"`       // full @tag(value) span
	ValueRange textpos.Range `json:"value_range"` // value only, end-exclusive
	AliasFor   string        `json:"alias_for,omitempty"`
}

// Canonical returns the canonical tag name, resolving aliases.
func (e *MetaEntry) Canonical() string {
	if e.AliasFor != "" {
		return e.AliasFor
	}
	return e.Tag
}

// Metadata holds an item's entries both in document order and by canonical
// tag name. Exactly one entry exists per canonical tag.
type Metadata struct {
	Entries []*MetaEntry
	byTag   map[string]*MetaEntry
}

// Get returns the entry for the canonical tag name.
func (m *Metadata) Get(tag string) (*MetaEntry, bool) {
	if m == nil {
		return nil, false
	}
	e, ok := m.byTag[tag]
	return e, ok
}

// All returns the entries in document order.
func (m *Metadata) All() []*MetaEntry {
	if m == nil {
		return nil
	}
	return m.Entries
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

func (m *Metadata) add(e *MetaEntry) {
	canonical := e.Canonical()
	if prev, ok := m.byTag[canonical]; ok {
		// Re-added tag: the later occurrence wins in place.
		*prev = *e
		return
	}
	m.Entries = append(m.Entries, e)
	m.byTag[canonical] = e
}

// Item is one todo entry. Items form an arena keyed by ID; children and
// parent are stored as IDs rather than pointers so a TodoMap snapshot is
// trivially serializable.
type Item struct {
	ID     int           `json:"id"`
	Range  textpos.Range `json:"range"` // all rows of the item, continuations included
	Indent int           `json:"indent"`

	ListMarker string `json:"list_marker"` // e.g. "-", "*", "1."
	TodoMarker string `json:"todo_marker"` // the token in the text, e.g. "[x]" or "✔"
	State      string `json:"state"`

	// MarkerSpan is the byte span of TodoMarker on the first row.
	MarkerSpan textpos.Range `json:"marker_span"`
	// ContentCol is the byte column where the item text begins on the
	// first row, just past the todo marker.
	ContentCol int `json:"content_col"`

	Parent   int   `json:"parent"` // NoParent for roots
	Children []int `json:"children,omitempty"`

	Meta *Metadata `json:"-"`

	// contentRows are the rows owned by this item itself: its first row
	// plus continuation rows, excluding rows of child items.
	contentRows []int
}

// Text returns the item's first-line text after the todo marker.
func (it *Item) Text(lines []string) string {
	line := lines[it.Range.Start.Row]
	if it.ContentCol > len(line) {
		return ""
	}
	return line[it.ContentCol:]
}

// ContentRows returns the rows owned by the item itself (first row and
// continuation rows, child rows excluded) in ascending order.
func (it *Item) ContentRows() []int { return it.contentRows }

// TodoMap is the result of one parse pass over a document. It is replaced
// wholesale on each parse and never partially mutated.
type TodoMap struct {
	Items map[int]*Item
	Order []int // item IDs in document order
	Roots []int // top-level item IDs in document order

	// ByTag indexes item IDs by canonical tag name, in document order.
	ByTag map[string][]int

	rowIndex []int // row -> item ID, NoParent when the row is outside items
}

// At returns the item covering the given row, including continuation rows
// and rows of the item's first line.
func (tm *TodoMap) At(row int) (*Item, bool) {
	if row < 0 || row >= len(tm.rowIndex) || tm.rowIndex[row] == NoParent {
		return nil, false
	}
	return tm.Items[tm.rowIndex[row]], true
}

// Descendants returns the IDs of all items below the given item,
// depth-first in document order.
func (tm *TodoMap) Descendants(id int) []int {
	var out []int
	var walk func(int)
	walk = func(cur int) {
		for _, child := range tm.Items[cur].Children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}

// Subtree returns the row span covering the item and all its descendants.
func (tm *TodoMap) Subtree(id int) textpos.Range {
	r := tm.Items[id].Range
	for _, d := range tm.Descendants(id) {
		if tm.Items[d].Range.End.Row > r.End.Row {
			r.End = tm.Items[d].Range.End
		}
	}
	return r
}
