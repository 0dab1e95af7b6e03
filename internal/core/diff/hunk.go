package diff

import (
	"sort"
	"strings"
)

// Kind identifies the granularity and intent of a hunk.
type Kind int

const (
	// KindLine replaces, inserts, or deletes whole lines.
	KindLine Kind = iota
	// KindText edits a byte span within a single line.
	KindText
	// KindMarker is a text edit over a state token. It behaves like
	// KindText but anchors inside the replaced span are kept in place
	// instead of being collapsed to the span start.
	KindMarker
)

// Hunk is one atomic text edit. Coordinates are valid only against the
// document state the hunk was computed from; ApplyDiff keeps them valid by
// applying a batch from the highest position to the lowest.
type Hunk struct {
	Kind Kind
	Row  int

	// Line-granularity fields.
	Count int      // lines covered starting at Row (0 for pure insert)
	Lines []string // replacement lines (nil for pure delete)

	// Span-granularity fields, end-exclusive byte columns.
	StartCol int
	EndCol   int
	Text     string
}

// LineReplace replaces Count=1 line at row with the given lines. More than
// one replacement line expands the document; zero lines is a delete.
func LineReplace(row int, lines ...string) Hunk {
	return Hunk{Kind: KindLine, Row: row, Count: 1, Lines: lines}
}

// LineInsert inserts the given lines before row.
func LineInsert(row int, lines ...string) Hunk {
	return Hunk{Kind: KindLine, Row: row, Count: 0, Lines: lines}
}

// LineDelete removes count lines starting at row.
func LineDelete(row, count int) Hunk {
	return Hunk{Kind: KindLine, Row: row, Count: count}
}

// TextReplace replaces the byte span [startCol, endCol) on row with text.
func TextReplace(row, startCol, endCol int, text string) Hunk {
	return Hunk{Kind: KindText, Row: row, StartCol: startCol, EndCol: endCol, Text: text}
}

// TextInsert inserts text at the byte column col on row.
func TextInsert(row, col int, text string) Hunk {
	return Hunk{Kind: KindText, Row: row, StartCol: col, EndCol: col, Text: text}
}

// TextDelete removes the byte span [startCol, endCol) on row.
func TextDelete(row, startCol, endCol int) Hunk {
	return Hunk{Kind: KindText, Row: row, StartCol: startCol, EndCol: endCol}
}

// MarkerReplace replaces a state token span on row with text, preserving
// anchors recorded inside the token.
func MarkerReplace(row, startCol, endCol int, text string) Hunk {
	return Hunk{Kind: KindMarker, Row: row, StartCol: startCol, EndCol: endCol, Text: text}
}

// IsNoop reports whether the hunk changes nothing: an empty span with an
// empty replacement, or a line hunk covering zero lines with no insertion.
func (h Hunk) IsNoop() bool {
	switch h.Kind {
	case KindLine:
		return h.Count == 0 && len(h.Lines) == 0
	default:
		return h.StartCol == h.EndCol && h.Text == ""
	}
}

// Apply mutates the document with a single hunk and remaps anchors. A hunk
// that edits nothing (a no-op, or a text hunk aimed at a row outside the
// document) leaves the modified flag alone.
func Apply(d *Document, h Hunk) {
	if h.IsNoop() {
		return
	}

	var edited bool
	switch h.Kind {
	case KindLine:
		edited = applyLine(d, h)
	default:
		edited = applyText(d, h)
	}
	if !edited {
		return
	}

	d.Modified = true
	d.remapAnchors(h)
}

// ApplyDiff applies a batch of hunks as one atomic edit. No-op hunks are
// filtered out; the rest are applied from the highest row/column to the
// lowest so that every hunk's coordinates stay valid against the snapshot
// the batch was computed from. Hunks at the same position are applied in
// reverse queue order: the later-queued edit goes in first and is pushed
// right by the earlier ones, so same-point inserts read in queue order.
func ApplyDiff(d *Document, hunks []Hunk) {
	type queued struct {
		Hunk
		seq int
	}

	live := make([]queued, 0, len(hunks))
	for i, h := range hunks {
		if !h.IsNoop() {
			live = append(live, queued{Hunk: h, seq: i})
		}
	}

	sort.SliceStable(live, func(i, j int) bool {
		if live[i].Row != live[j].Row {
			return live[i].Row > live[j].Row
		}
		if live[i].StartCol != live[j].StartCol {
			return live[i].StartCol > live[j].StartCol
		}
		return live[i].seq > live[j].seq
	})

	for _, h := range live {
		Apply(d, h.Hunk)
	}
}

func applyLine(d *Document, h Hunk) bool {
	row := clamp(h.Row, 0, len(d.lines))
	end := clamp(row+h.Count, row, len(d.lines))
	if end == row && len(h.Lines) == 0 {
		return false
	}

	out := make([]string, 0, len(d.lines)-(end-row)+len(h.Lines))
	out = append(out, d.lines[:row]...)
	out = append(out, h.Lines...)
	out = append(out, d.lines[end:]...)
	d.lines = out
	return true
}

func applyText(d *Document, h Hunk) bool {
	if h.Row < 0 || h.Row >= len(d.lines) {
		return false
	}
	line := d.lines[h.Row]
	start := clamp(h.StartCol, 0, len(line))
	end := clamp(h.EndCol, start, len(line))

	var b strings.Builder
	b.Grow(len(line) - (end - start) + len(h.Text))
	b.WriteString(line[:start])
	b.WriteString(h.Text)
	b.WriteString(line[end:])
	d.lines[h.Row] = b.String()
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
