package textpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRuneConversion(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		byteCol int
		runeCol int
	}{
		{name: "ascii", line: "- [ ] task", byteCol: 6, runeCol: 6},
		{name: "start of line", line: "hello", byteCol: 0, runeCol: 0},
		{name: "after multibyte marker", line: "- ✔ done", byteCol: 5, runeCol: 3},
		{name: "end of multibyte line", line: "□ déjà", byteCol: 10, runeCol: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.runeCol, ByteToRune(tt.line, tt.byteCol))
			assert.Equal(t, tt.byteCol, RuneToByte(tt.line, tt.runeCol))
		})
	}
}

func TestByteToRuneClamps(t *testing.T) {
	assert.Equal(t, 5, ByteToRune("hello", 99))
	assert.Equal(t, 5, RuneToByte("hello", 99))
}

func TestEndOfContent(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"- [ ] task", 10},
		{"- [ ] task   ", 10},
		{"- [ ] task\t", 10},
		{"   ", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EndOfContent(tt.line), "line %q", tt.line)
	}
}

func TestIndent(t *testing.T) {
	assert.Equal(t, 0, IndentWidth("- item"))
	assert.Equal(t, 2, IndentWidth("  - item"))
	assert.Equal(t, 1, IndentWidth("\t- item"))
	assert.Equal(t, 4, IndentEnd("    x"))
	assert.Equal(t, 3, IndentEnd("   "))
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: Pos{Row: 1, Col: 2}, End: Pos{Row: 3, Col: 0}}

	assert.True(t, r.Contains(Pos{Row: 1, Col: 2}))
	assert.True(t, r.Contains(Pos{Row: 2, Col: 99}))
	assert.False(t, r.Contains(Pos{Row: 3, Col: 0}), "end is exclusive")
	assert.False(t, r.Contains(Pos{Row: 1, Col: 1}))
	assert.True(t, r.ContainsRow(3))
	assert.False(t, r.ContainsRow(4))
}
