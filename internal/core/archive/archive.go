// Package archive relocates fully-checked top-level items (and their
// subtrees) under a designated heading. Running it twice with no
// intervening edits is a no-op.
package archive

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/txn"
)

// Options configures where and how checked items are filed.
type Options struct {
	Heading      string // heading text, without the leading #'s
	HeadingLevel int    // 1-6
	Spacing      int    // blank lines between relocated top-level blocks
	NewestFirst  bool   // prepend new blocks under the heading instead of appending
}

// DefaultOptions archives under "## Archive" with no extra spacing.
func DefaultOptions() Options {
	return Options{Heading: "Archive", HeadingLevel: 2}
}

// Archiver moves completed subtrees under the archive heading.
type Archiver struct {
	states *pattern.StateSet
	parser *parse.Parser
	opts   Options
	log    zerolog.Logger
}

// New builds an archiver.
func New(states *pattern.StateSet, parser *parse.Parser, opts Options) *Archiver {
	return &Archiver{
		states: states,
		parser: parser,
		opts:   opts,
		log:    logging.Component("archive"),
	}
}

// block is one relocatable top-level subtree, addressed in the coordinates
// of the snapshot the archiver parsed.
type block struct {
	startRow int
	endRow   int // inclusive
}

// Run relocates every fully-checked top-level item into the archive
// section as a single transaction. It reports whether the document changed.
func (a *Archiver) Run(doc *diff.Document) (bool, error) {
	tm := a.parser.Parse(doc)

	headingRow, sectionEnd := a.findSection(doc)

	var blocks []block
	for _, root := range tm.Roots {
		item := tm.Items[root]
		if headingRow >= 0 && item.Range.Start.Row > headingRow && item.Range.Start.Row < sectionEnd {
			continue // already archived
		}
		if !a.subtreeChecked(tm, root) {
			continue
		}
		span := tm.Subtree(root)
		blocks = append(blocks, block{startRow: span.Start.Row, endRow: span.End.Row})
	}

	if len(blocks) == 0 {
		return false, nil
	}

	a.log.Debug().Int("blocks", len(blocks)).Str("path", doc.Path).Msg("archiving checked items")

	err := txn.Run(doc, func(tx *txn.Tx) {
		tx.AddOp(func(tx *txn.Tx) error {
			a.queueMove(tx, blocks, headingRow, sectionEnd)
			return nil
		})
	})

	return true, err
}

// subtreeChecked reports whether the item and every descendant are in the
// checked class. Custom states keep a subtree out of the archive.
func (a *Archiver) subtreeChecked(tm *parse.TodoMap, id int) bool {
	ids := append([]int{id}, tm.Descendants(id)...)
	for _, cur := range ids {
		st, ok := a.states.ByName(tm.Items[cur].State)
		if !ok || st.Class != pattern.ClassChecked {
			return false
		}
	}
	return true
}

// findSection locates the archive heading and the exclusive end row of its
// section (the next heading, or end of document). Returns headingRow -1
// when the heading does not exist yet.
func (a *Archiver) findSection(doc *diff.Document) (headingRow, sectionEnd int) {
	lines := doc.Lines()
	want := strings.Repeat("#", a.opts.HeadingLevel) + " " + a.opts.Heading

	headingRow = -1
	for row, line := range lines {
		if headingRow < 0 {
			if strings.TrimRight(line, " \t") == want {
				headingRow = row
			}
			continue
		}
		if pattern.HeadingLevel(line) > 0 {
			return headingRow, row
		}
	}
	return headingRow, len(lines)
}

// queueMove queues the line hunks that delete each block from its original
// position and insert all blocks into the archive section. All coordinates
// are against the snapshot, so the hunks compose under ApplyDiff's
// highest-row-first ordering.
func (a *Archiver) queueMove(tx *txn.Tx, blocks []block, headingRow, sectionEnd int) {
	doc := tx.Doc()
	lines := doc.Lines()

	ordered := make([]block, len(blocks))
	copy(ordered, blocks)
	if a.opts.NewestFirst {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	var insert []string
	appendBlock := func(b block) {
		if len(insert) > 0 {
			for i := 0; i < a.opts.Spacing; i++ {
				insert = append(insert, "")
			}
		}
		insert = append(insert, lines[b.startRow:b.endRow+1]...)
	}
	for _, b := range ordered {
		appendBlock(b)
	}

	insertRow := sectionEnd
	switch {
	case headingRow < 0:
		// No archive section yet: create it at the end of the document.
		head := []string{strings.Repeat("#", a.opts.HeadingLevel) + " " + a.opts.Heading}
		if n := doc.LineCount(); n > 0 && strings.TrimSpace(doc.Line(n-1)) != "" {
			head = append([]string{""}, head...)
		}
		insert = append(head, insert...)
		insertRow = doc.LineCount()
	case a.opts.NewestFirst:
		insertRow = headingRow + 1
	default:
		// Append after existing section content, trimming past trailing
		// blank rows so spacing stays consistent across runs.
		for insertRow > headingRow+1 && strings.TrimSpace(doc.Line(insertRow-1)) == "" {
			insertRow--
		}
	}

	tx.Queue(diff.LineInsert(insertRow, insert...))
	for _, b := range blocks {
		tx.Queue(diff.LineDelete(b.startRow, b.endRow-b.startRow+1))
	}
}
