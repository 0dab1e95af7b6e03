// Package meta mutates @tag(value) metadata on todo items. All edits are
// queued on a transaction as hunks; the engine never touches document text
// directly.
package meta

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/textpos"
	"github.com/colonyops/tickdown/internal/core/txn"
)

// defaultSortOrder places tags without a configured order after any tag
// with an explicit low order.
const defaultSortOrder = 100

// Callback observes a metadata lifecycle event. Callbacks run inside an
// error boundary: a panic is reported and the triggering operation still
// counts as successful.
type Callback func(item *parse.Item, tag, value string)

// TagDef configures one tag: its placement among other tags on the line,
// alternate spellings, allowed values, and lifecycle callbacks.
type TagDef struct {
	Name      string
	SortOrder int
	Aliases   []string
	Choices   ChoiceSource

	OnAdd    Callback
	OnChange Callback
	OnRemove Callback
}

// Engine performs metadata operations against items of one configured
// document model.
type Engine struct {
	defs map[string]*TagDef
	log  zerolog.Logger
}

// NewEngine builds a metadata engine from tag definitions.
func NewEngine(defs []TagDef) *Engine {
	e := &Engine{
		defs: make(map[string]*TagDef, len(defs)),
		log:  logging.Component("meta"),
	}
	for i := range defs {
		def := defs[i]
		e.defs[def.Name] = &def
	}
	return e
}

// Aliases returns the alias-to-canonical map for the parser.
func (e *Engine) Aliases() map[string]string {
	out := make(map[string]string)
	for name, def := range e.defs {
		for _, alias := range def.Aliases {
			out[alias] = name
		}
	}
	return out
}

// Canonical resolves a tag name or alias to its canonical name. Unknown
// names resolve to themselves.
func (e *Engine) Canonical(tag string) string {
	if _, ok := e.defs[tag]; ok {
		return tag
	}
	for name, def := range e.defs {
		for _, alias := range def.Aliases {
			if alias == tag {
				return name
			}
		}
	}
	return tag
}

func (e *Engine) sortOrder(tag string) int {
	if def, ok := e.defs[tag]; ok {
		return def.SortOrder
	}
	return defaultSortOrder
}

// InsertPosition returns where a new tag's text belongs on the item, given
// the configured sort orders: immediately after the last entry sorting at or
// below the new tag, immediately before the first entry sorting above it,
// or at the end of the item's visible first-line content when the item has
// no metadata. leading reports whether the caller must prepend a separating
// space; a false value means the separator goes after the tag text instead.
func (e *Engine) InsertPosition(doc *diff.Document, item *parse.Item, tag string) (pos textpos.Pos, leading bool) {
	order := e.sortOrder(e.Canonical(tag))

	var after *parse.MetaEntry
	var before *parse.MetaEntry
	for _, entry := range item.Meta.All() {
		if e.sortOrder(entry.Canonical()) <= order {
			after = entry
		} else if before == nil {
			before = entry
		}
	}

	switch {
	case after != nil:
		return after.Range.End, true
	case before != nil:
		return before.Range.Start, false
	default:
		row := item.Range.Start.Row
		return textpos.Pos{Row: row, Col: textpos.EndOfContent(doc.Line(row))}, true
	}
}

// Add upserts a tag on the item. When the tag (or an alias of it) already
// exists, its value is updated in place and OnChange fires instead of OnAdd.
func (e *Engine) Add(tx *txn.Tx, item *parse.Item, tag, value string) {
	canonical := e.Canonical(tag)

	if entry, ok := item.Meta.Get(canonical); ok {
		e.replaceValue(tx, entry, value)
		e.fire("on_change", e.callback(canonical, func(d *TagDef) Callback { return d.OnChange }), item, tag, value)
		return
	}

	pos, leading := e.InsertPosition(tx.Doc(), item, tag)
	text := fmt.Sprintf("@%s(%s)", tag, value)
	if leading {
		text = " " + text
	} else {
		text += " "
	}

	tx.Queue(diff.TextInsert(pos.Row, pos.Col, text))
	e.fire("on_add", e.callback(canonical, func(d *TagDef) Callback { return d.OnAdd }), item, tag, value)
}

// Update changes the value of an existing tag. A missing tag is a no-op,
// not a failure; the return value reports whether anything was queued.
func (e *Engine) Update(tx *txn.Tx, item *parse.Item, tag, value string) bool {
	canonical := e.Canonical(tag)
	entry, ok := item.Meta.Get(canonical)
	if !ok {
		return false
	}

	e.replaceValue(tx, entry, value)
	e.fire("on_change", e.callback(canonical, func(d *TagDef) Callback { return d.OnChange }), item, tag, value)
	return true
}

// Remove deletes a tag's full span, including values that wrap across lines
// or contain nested parentheses, without leaving a dangling separator space.
// A missing tag is a no-op.
func (e *Engine) Remove(tx *txn.Tx, item *parse.Item, tag string) bool {
	canonical := e.Canonical(tag)
	entry, ok := item.Meta.Get(canonical)
	if !ok {
		return false
	}

	e.removeSpan(tx, entry)
	e.fire("on_remove", e.callback(canonical, func(d *TagDef) Callback { return d.OnRemove }), item, entry.Tag, entry.Value)
	return true
}

// replaceValue swaps an entry's value text. Values confined to one row are
// replaced in place; row-spanning values collapse onto the entry's first
// row before the new value is written.
func (e *Engine) replaceValue(tx *txn.Tx, entry *parse.MetaEntry, value string) {
	vr := entry.ValueRange
	if vr.Start.Row == vr.End.Row {
		tx.Queue(diff.TextReplace(vr.Start.Row, vr.Start.Col, vr.End.Col, value))
		return
	}

	doc := tx.Doc()
	first := doc.Line(vr.Start.Row)
	last := doc.Line(vr.End.Row)

	merged := first[:vr.Start.Col] + value + last[vr.End.Col:]
	tx.Queue(diff.LineReplace(vr.Start.Row, merged))
	tx.Queue(diff.LineDelete(vr.Start.Row+1, vr.End.Row-vr.Start.Row))
}

// removeSpan deletes an entry's full @tag(value) span together with exactly
// one adjacent separator space.
func (e *Engine) removeSpan(tx *txn.Tx, entry *parse.MetaEntry) {
	doc := tx.Doc()
	r := entry.Range

	if r.Start.Row == r.End.Row {
		line := doc.Line(r.Start.Row)
		start, end := r.Start.Col, r.End.Col
		switch {
		case start > 0 && line[start-1] == ' ':
			start--
		case end < len(line) && line[end] == ' ':
			end++
		}
		tx.Queue(diff.TextDelete(r.Start.Row, start, end))
		return
	}

	// First row: drop the span and its leading separator through the end
	// of the line.
	firstLine := doc.Line(r.Start.Row)
	start := r.Start.Col
	if start > 0 && firstLine[start-1] == ' ' {
		start--
	}
	tx.Queue(diff.TextDelete(r.Start.Row, start, len(firstLine)))

	// Middle rows are consumed entirely by the value.
	if middle := r.End.Row - r.Start.Row - 1; middle > 0 {
		tx.Queue(diff.LineDelete(r.Start.Row+1, middle))
	}

	// Last row: keep the indentation, drop the tail of the value plus one
	// trailing separator. If nothing else lives on the row, drop the row.
	lastLine := doc.Line(r.End.Row)
	end := r.End.Col
	if end < len(lastLine) && lastLine[end] == ' ' {
		end++
	}
	if end >= textpos.EndOfContent(lastLine) {
		tx.Queue(diff.LineDelete(r.End.Row, 1))
		return
	}
	tx.Queue(diff.TextDelete(r.End.Row, textpos.IndentEnd(lastLine), end))
}

func (e *Engine) callback(canonical string, pick func(*TagDef) Callback) Callback {
	def, ok := e.defs[canonical]
	if !ok {
		return nil
	}
	return pick(def)
}

// fire invokes a lifecycle callback inside an error boundary. A panicking
// callback is reported and the surrounding operation proceeds.
func (e *Engine) fire(event string, cb Callback, item *parse.Item, tag, value string) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("event", event).
				Str("tag", tag).
				Str("panic", fmt.Sprint(r)).
				Msg("metadata callback panicked")
		}
	}()
	cb(item, tag, value)
}
