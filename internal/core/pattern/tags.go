package pattern

import (
	"strings"

	"github.com/colonyops/tickdown/internal/core/textpos"
)

// TagMatch is one recognized @tag(value) span. Ranges use byte columns and
// may cross line boundaries when the value wraps.
type TagMatch struct {
	Tag        string // tag name as written
	Value      string // raw value text; multi-line values join with "\n"
	Range      textpos.Range
	ValueRange textpos.Range
}

// isTagNameChar reports whether c may appear in a tag identifier.
func isTagNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// ScanTags scans the given rows of a document for metadata tags. The rows
// must be in ascending order and belong to one item: a value whose
// parentheses stay open continues onto the next row in the list. firstCol is
// the byte column scanning starts at on the first row; subsequent rows are
// scanned from column 0.
//
// A tag whose parentheses never balance before the rows run out is not an
// error; the text is simply not a tag and scanning resumes after the "@".
func ScanTags(lines []string, rows []int, firstCol int) []TagMatch {
	var tags []TagMatch

	for idx := 0; idx < len(rows); idx++ {
		row := rows[idx]
		line := lines[row]
		col := 0
		if idx == 0 {
			col = firstCol
		}

		for col < len(line) {
			at := strings.IndexByte(line[col:], '@')
			if at < 0 {
				break
			}
			start := col + at

			m, endIdx, ok := scanTagAt(lines, rows, idx, start)
			if !ok {
				col = start + 1
				continue
			}

			tags = append(tags, m)

			if endIdx != idx {
				// Value wrapped; resume scanning on the row it ended on.
				idx = endIdx
				row = rows[idx]
				line = lines[row]
			}
			col = m.Range.End.Col
		}
	}

	return tags
}

// scanTagAt attempts to match a full @name(value) starting at byte column
// start on rows[idx]. It tracks parenthesis depth across rows so nested
// values such as "fix(api): broken!" close at the right place. Returns the
// match and the index into rows where the match ended.
func scanTagAt(lines []string, rows []int, idx, start int) (TagMatch, int, bool) {
	line := lines[rows[idx]]

	nameStart := start + 1
	nameEnd := nameStart
	for nameEnd < len(line) && isTagNameChar(line[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart || nameEnd >= len(line) || line[nameEnd] != '(' {
		return TagMatch{}, idx, false
	}

	valueStart := textpos.Pos{Row: rows[idx], Col: nameEnd + 1}
	depth := 1
	var value strings.Builder

	col := nameEnd + 1
	for i := idx; i < len(rows); i++ {
		cur := lines[rows[i]]
		if i != idx {
			col = 0
		}
		for col < len(cur) {
			switch cur[col] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return TagMatch{
						Tag:   line[nameStart:nameEnd],
						Value: value.String(),
						Range: textpos.Range{
							Start: textpos.Pos{Row: rows[idx], Col: start},
							End:   textpos.Pos{Row: rows[i], Col: col + 1},
						},
						ValueRange: textpos.Range{
							Start: valueStart,
							End:   textpos.Pos{Row: rows[i], Col: col},
						},
					}, i, true
				}
			}
			value.WriteByte(cur[col])
			col++
		}
		value.WriteByte('\n')
	}

	// Ran out of item rows with parentheses still open: not a tag.
	return TagMatch{}, idx, false
}
