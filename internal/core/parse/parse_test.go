package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/textpos"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	states, err := pattern.NewStateSet(pattern.DefaultStates())
	require.NoError(t, err)
	return NewParser(states, map[string]string{"deadline": "due"})
}

func parseText(t *testing.T, text string) *TodoMap {
	t.Helper()
	return newTestParser(t).Parse(diff.NewDocument(text))
}

func TestParseFlatList(t *testing.T) {
	tm := parseText(t, "- [ ] one\n- [x] two\n- [ ] three\n")

	require.Len(t, tm.Order, 3)
	assert.Equal(t, tm.Order, tm.Roots)

	one := tm.Items[tm.Order[0]]
	assert.Equal(t, "unchecked", one.State)
	assert.Equal(t, "-", one.ListMarker)
	assert.Equal(t, "[ ]", one.TodoMarker)
	assert.Equal(t, NoParent, one.Parent)
	assert.Equal(t, "one", one.Text([]string{"- [ ] one"}))

	two := tm.Items[tm.Order[1]]
	assert.Equal(t, "checked", two.State)
	assert.Equal(t, 1, two.Range.Start.Row)
}

func TestParseHierarchy(t *testing.T) {
	tm := parseText(t, `- [ ] parent
  - [ ] child 1
    - [x] grandchild
  - [ ] child 2
- [ ] uncle
`)

	require.Len(t, tm.Order, 5)
	parent := tm.Items[tm.Order[0]]
	child1 := tm.Items[tm.Order[1]]
	grand := tm.Items[tm.Order[2]]
	child2 := tm.Items[tm.Order[3]]
	uncle := tm.Items[tm.Order[4]]

	assert.Equal(t, []int{child1.ID, child2.ID}, parent.Children)
	assert.Equal(t, parent.ID, child1.Parent)
	assert.Equal(t, child1.ID, grand.Parent)
	assert.Equal(t, parent.ID, child2.Parent)
	assert.Equal(t, NoParent, uncle.Parent)
	assert.Equal(t, []int{parent.ID, uncle.ID}, tm.Roots)

	// Child indentation strictly greater than the parent's.
	assert.Greater(t, child1.Indent, parent.Indent)
	assert.Greater(t, grand.Indent, child1.Indent)

	// Subtree span covers all descendants.
	assert.Equal(t, 0, tm.Subtree(parent.ID).Start.Row)
	assert.Equal(t, 3, tm.Subtree(parent.ID).End.Row)
	assert.ElementsMatch(t, []int{child1.ID, grand.ID, child2.ID}, tm.Descendants(parent.ID))
}

func TestParseContinuationLines(t *testing.T) {
	tm := parseText(t, `- [ ] task
  spans two lines
- [ ] next
`)

	require.Len(t, tm.Order, 2)
	task := tm.Items[tm.Order[0]]

	assert.Equal(t, 0, task.Range.Start.Row)
	assert.Equal(t, 1, task.Range.End.Row)
	assert.Equal(t, []int{0, 1}, task.ContentRows())

	// Continuation rows resolve to their item.
	got, ok := tm.At(1)
	require.True(t, ok)
	assert.Equal(t, task.ID, got.ID)
}

func TestParseSymbolicMarkers(t *testing.T) {
	tm := parseText(t, "- □ live form\n  - ✔ done\n")

	require.Len(t, tm.Order, 2)
	assert.Equal(t, "unchecked", tm.Items[tm.Order[0]].State)
	assert.Equal(t, "✔", tm.Items[tm.Order[1]].TodoMarker)
	assert.Equal(t, tm.Order[0], tm.Items[tm.Order[1]].Parent)
}

func TestParseMetadata(t *testing.T) {
	tm := parseText(t, "- [ ] task @due(2026-09-01) @priority(high)\n")

	it := tm.Items[tm.Order[0]]
	require.Equal(t, 2, it.Meta.Len())

	due, ok := it.Meta.Get("due")
	require.True(t, ok)
	assert.Equal(t, "2026-09-01", due.Value)

	assert.Equal(t, []int{it.ID}, tm.ByTag["due"])
	assert.Equal(t, []int{it.ID}, tm.ByTag["priority"])
}

func TestParseMetadataAlias(t *testing.T) {
	tm := parseText(t, "- [ ] task @deadline(friday)\n")

	it := tm.Items[tm.Order[0]]
	entry, ok := it.Meta.Get("due")
	require.True(t, ok, "alias resolves to canonical tag")
	assert.Equal(t, "deadline", entry.Tag)
	assert.Equal(t, "due", entry.AliasFor)
	assert.Equal(t, []int{it.ID}, tm.ByTag["due"])
	assert.Empty(t, tm.ByTag["deadline"])
}

func TestParseMetadataMultiline(t *testing.T) {
	tm := parseText(t, "- [ ] Task @func(call(nested,\n  args)) @other(value)\n")

	require.Len(t, tm.Order, 1)
	it := tm.Items[tm.Order[0]]
	require.Equal(t, 2, it.Meta.Len())

	fn, ok := it.Meta.Get("func")
	require.True(t, ok)
	assert.Equal(t, "call(nested,\n  args)", fn.Value)
	assert.Equal(t, textpos.Pos{Row: 0, Col: 11}, fn.Range.Start)
	assert.Equal(t, textpos.Pos{Row: 1, Col: 8}, fn.Range.End)

	other, ok := it.Meta.Get("other")
	require.True(t, ok)
	assert.Equal(t, 1, other.Range.Start.Row)
}

func TestParseMetadataDuplicateTagKeepsOne(t *testing.T) {
	tm := parseText(t, "- [ ] task @due(monday) @due(friday)\n")

	it := tm.Items[tm.Order[0]]
	require.Equal(t, 1, it.Meta.Len())

	due, _ := it.Meta.Get("due")
	assert.Equal(t, "friday", due.Value)
	assert.Equal(t, []int{it.ID}, tm.ByTag["due"], "one index entry per item")
}

func TestParseUnbalancedTagIsPlainText(t *testing.T) {
	tm := parseText(t, "- [ ] task @broken(never closes\n- [ ] next\n")

	require.Len(t, tm.Order, 2)
	assert.Equal(t, 0, tm.Items[tm.Order[0]].Meta.Len())
}

func TestParseEmptyItem(t *testing.T) {
	tm := parseText(t, "- [ ]\n")

	require.Len(t, tm.Order, 1)
	it := tm.Items[tm.Order[0]]
	assert.Equal(t, 5, it.ContentCol)
	assert.Equal(t, "", it.Text([]string{"- [ ]"}))
}

func TestParseHeadingClosesItems(t *testing.T) {
	tm := parseText(t, `- [ ] before
## Section
  - [ ] after
`)

	require.Len(t, tm.Order, 2)
	after := tm.Items[tm.Order[1]]
	assert.Equal(t, NoParent, after.Parent, "heading closes all open items")
}

func TestParseBlankLineKeepsItemOpen(t *testing.T) {
	tm := parseText(t, "- [ ] parent\n\n  - [ ] child\n")

	require.Len(t, tm.Order, 2)
	assert.Equal(t, tm.Order[0], tm.Items[tm.Order[1]].Parent)
}

func TestParsePlainListItemIsNotContinuation(t *testing.T) {
	tm := parseText(t, `- [ ] parent @tag(v)
  - plain note
  - [ ] child
`)

	require.Len(t, tm.Order, 2)
	parent := tm.Items[tm.Order[0]]
	child := tm.Items[tm.Order[1]]

	assert.Equal(t, parent.ID, child.Parent)
	assert.Equal(t, []int{0}, parent.ContentRows())
	_, ok := tm.At(1)
	assert.False(t, ok)
}

func TestParseDedentBelowParentStartsNewRoot(t *testing.T) {
	// Malformed nesting never aborts the parse; the dedented item simply
	// becomes a new root.
	tm := parseText(t, "  - [ ] indented root\n- [ ] shallower\n")

	require.Len(t, tm.Order, 2)
	assert.Equal(t, NoParent, tm.Items[tm.Order[0]].Parent)
	assert.Equal(t, NoParent, tm.Items[tm.Order[1]].Parent)
	assert.Equal(t, []int{tm.Order[0], tm.Order[1]}, tm.Roots)
}

func TestParseUnicodeContent(t *testing.T) {
	tm := parseText(t, "- [ ] déjà vu ☕ @café(naïve)\n")

	it := tm.Items[tm.Order[0]]
	entry, ok := it.Meta.Get("caf")
	// Tag identifiers are ASCII; "é" ends the name scan, so the tag cannot
	// match the "(" that follows. No metadata is recognized here.
	assert.False(t, ok)
	assert.Nil(t, entry)
	assert.Equal(t, 0, it.Meta.Len())
}

func TestParseRowIndexCoversAllRows(t *testing.T) {
	tm := parseText(t, "intro text\n- [ ] task\n  continuation\n\n- [x] other\n")

	_, ok := tm.At(0)
	assert.False(t, ok)
	item1, ok := tm.At(2)
	require.True(t, ok)
	assert.Equal(t, 1, item1.Range.Start.Row)
	_, ok = tm.At(3)
	assert.False(t, ok)
	item2, ok := tm.At(4)
	require.True(t, ok)
	assert.Equal(t, "checked", item2.State)
	_, ok = tm.At(99)
	assert.False(t, ok)
}
