package parse

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/textpos"
)

// Parser recovers a TodoMap from document lines. It is stateless across
// calls and safe to reuse for any number of parse passes.
type Parser struct {
	states  *pattern.StateSet
	aliases map[string]string // tag alias -> canonical name
	log     zerolog.Logger
}

// NewParser builds a parser for the given state set. aliases maps alternate
// tag spellings to their canonical name and may be nil.
func NewParser(states *pattern.StateSet, aliases map[string]string) *Parser {
	return &Parser{
		states:  states,
		aliases: aliases,
		log:     logging.Component("parse"),
	}
}

// Parse walks every line and builds the todo tree. Parsing never fails:
// malformed input degrades to plain text or to new roots rather than
// aborting.
func (p *Parser) Parse(doc *diff.Document) *TodoMap {
	lines := doc.Lines()

	tm := &TodoMap{
		Items:    make(map[int]*Item),
		ByTag:    make(map[string][]int),
		rowIndex: make([]int, len(lines)),
	}
	for i := range tm.rowIndex {
		tm.rowIndex[i] = NoParent
	}

	var stack []int // IDs of open items, outermost first
	nextID := 1

	for row, line := range lines {
		if m, ok := p.states.MatchTodo(line); ok {
			// A new item closes every open item at the same or deeper
			// indentation.
			for len(stack) > 0 && tm.Items[stack[len(stack)-1]].Indent >= m.Indent {
				stack = stack[:len(stack)-1]
			}

			parent := NoParent
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}

			it := &Item{
				ID: nextID,
				Range: textpos.Range{
					Start: textpos.Pos{Row: row},
					End:   textpos.Pos{Row: row, Col: len(line)},
				},
				Indent:     m.Indent,
				ListMarker: m.Marker,
				TodoMarker: m.Token,
				State:      m.State.Name,
				MarkerSpan: textpos.Range{
					Start: textpos.Pos{Row: row, Col: m.TokenStart},
					End:   textpos.Pos{Row: row, Col: m.TokenEnd},
				},
				ContentCol:  m.ContentCol,
				Parent:      parent,
				contentRows: []int{row},
			}
			nextID++

			tm.Items[it.ID] = it
			tm.Order = append(tm.Order, it.ID)
			tm.rowIndex[row] = it.ID
			if parent == NoParent {
				tm.Roots = append(tm.Roots, it.ID)
			} else {
				tm.Items[parent].Children = append(tm.Items[parent].Children, it.ID)
			}

			stack = append(stack, it.ID)
			continue
		}

		if pattern.HeadingLevel(line) > 0 {
			// Headings close every open item.
			stack = stack[:0]
			continue
		}

		if strings.TrimSpace(line) == "" {
			// Blank lines neither extend nor close items.
			continue
		}

		indent := textpos.IndentWidth(line)
		for len(stack) > 0 && tm.Items[stack[len(stack)-1]].Indent >= indent {
			stack = stack[:len(stack)-1]
		}

		if _, isList := pattern.MatchListItem(line); isList {
			// A plain list item is neither a new todo nor a continuation.
			continue
		}

		if len(stack) == 0 {
			continue
		}

		// Continuation line: extend the innermost open item.
		it := tm.Items[stack[len(stack)-1]]
		it.Range.End = textpos.Pos{Row: row, Col: len(line)}
		it.contentRows = append(it.contentRows, row)
		tm.rowIndex[row] = it.ID
	}

	p.scanMetadata(lines, tm)

	return tm
}

// scanMetadata collects @tag(value) entries from each item's own rows.
func (p *Parser) scanMetadata(lines []string, tm *TodoMap) {
	for _, id := range tm.Order {
		it := tm.Items[id]

		tags := pattern.ScanTags(lines, it.contentRows, it.ContentCol)
		if len(tags) == 0 {
			continue
		}

		meta := &Metadata{byTag: make(map[string]*MetaEntry, len(tags))}
		for _, tag := range tags {
			entry := &MetaEntry{
				Tag:        tag.Tag,
				Value:      tag.Value,
				Range:      tag.Range,
				ValueRange: tag.ValueRange,
			}
			if canonical, ok := p.aliases[tag.Tag]; ok {
				entry.AliasFor = canonical
			}
			meta.add(entry)
		}
		it.Meta = meta

		for _, entry := range meta.Entries {
			tag := entry.Canonical()
			tm.ByTag[tag] = append(tm.ByTag[tag], id)
		}
	}
}
