// Package textpos provides position types and byte/rune column arithmetic
// shared by the parser, diff engine, and metadata engine.
//
// Rows are 0-based line indexes. Columns are byte offsets into the line
// unless a function says otherwise; RuneToByte and ByteToRune convert to
// and from human-facing rune columns.
package textpos

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pos is a single position in a document.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Before reports whether p is strictly before q in document order.
func (p Pos) Before(q Pos) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Range is a span between two positions. End is exclusive.
type Range struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Contains reports whether pos lies inside the range (start inclusive,
// end exclusive).
func (r Range) Contains(pos Pos) bool {
	return !pos.Before(r.Start) && pos.Before(r.End)
}

// ContainsRow reports whether the row falls within the range's rows.
func (r Range) ContainsRow(row int) bool {
	return row >= r.Start.Row && row <= r.End.Row
}

// ByteToRune converts a byte column into a rune column for the given line.
// A column past the end of the line maps to the line's rune count.
func ByteToRune(line string, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	return utf8.RuneCountInString(line[:byteCol])
}

// RuneToByte converts a rune column into a byte column for the given line.
// A rune column past the end of the line maps to len(line).
func RuneToByte(line string, runeCol int) int {
	n := 0
	for i := range line {
		if n == runeCol {
			return i
		}
		n++
	}
	return len(line)
}

// EndOfContent returns the byte column just past the last non-whitespace
// character of the line. Returns 0 for blank lines.
func EndOfContent(line string) int {
	return len(strings.TrimRightFunc(line, unicode.IsSpace))
}

// IndentWidth returns the number of leading whitespace runes on the line.
// Tabs count as a single column.
func IndentWidth(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// IndentEnd returns the byte column of the first non-whitespace character,
// or len(line) for a blank line.
func IndentEnd(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}
