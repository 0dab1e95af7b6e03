package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
)

func newArchiver(t *testing.T, opts Options) *Archiver {
	t.Helper()
	states, err := pattern.NewStateSet(append(pattern.DefaultStates(),
		pattern.State{Name: "pending", Char: '.', Marker: "◐", Class: pattern.ClassCustom, Order: 3},
	))
	require.NoError(t, err)
	return New(states, parse.NewParser(states, nil), opts)
}

func TestArchiveMovesCheckedRoots(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument(`- [x] done task
- [ ] open task

## Archive
`)

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `- [ ] open task

## Archive
- [x] done task
`, doc.Text())
}

func TestArchiveMovesWholeSubtree(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument(`- [x] parent
  - [x] child
  continuation line
- [ ] keep

## Archive
`)

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `- [ ] keep

## Archive
- [x] parent
  - [x] child
  continuation line
`, doc.Text())
}

func TestArchiveSkipsPartiallyCheckedSubtrees(t *testing.T) {
	a := newArchiver(t, DefaultOptions())

	tests := []struct {
		name string
		text string
	}{
		{name: "unchecked child", text: "- [x] parent\n  - [ ] child\n"},
		{name: "custom state child", text: "- [x] parent\n  - [.] child\n"},
		{name: "unchecked root", text: "- [ ] open\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := diff.NewDocument(tt.text)
			changed, err := a.Run(doc)
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, tt.text, doc.Text())
		})
	}
}

func TestArchiveCreatesHeadingWhenMissing(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument("- [x] done\n- [ ] open\n")

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "- [ ] open\n\n## Archive\n- [x] done\n", doc.Text())
}

func TestArchiveAppendsAfterExistingArchivedItems(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument(`- [x] new
- [ ] open

## Archive
- [x] old
`)

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `- [ ] open

## Archive
- [x] old
- [x] new
`, doc.Text())
}

func TestArchiveNewestFirst(t *testing.T) {
	opts := DefaultOptions()
	opts.NewestFirst = true
	a := newArchiver(t, opts)
	doc := diff.NewDocument(`- [x] first
- [x] second

## Archive
- [x] old
`)

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `
## Archive
- [x] second
- [x] first
- [x] old
`, doc.Text())
}

func TestArchiveSpacingBetweenBlocks(t *testing.T) {
	opts := DefaultOptions()
	opts.Spacing = 1
	a := newArchiver(t, opts)
	doc := diff.NewDocument(`- [x] one
- [x] two

## Archive
`)

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, `
## Archive
- [x] one

- [x] two
`, doc.Text())
}

func TestArchiveIsIdempotent(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument("- [x] done\n- [ ] open\n\n## Archive\n- [x] old\n")

	changed, err := a.Run(doc)
	require.NoError(t, err)
	require.True(t, changed)
	once := doc.Text()

	changed, err = a.Run(doc)
	require.NoError(t, err)
	assert.False(t, changed, "second run with no intervening edits is a no-op")
	assert.Equal(t, once, doc.Text())
}

func TestArchiveNothingToDo(t *testing.T) {
	a := newArchiver(t, DefaultOptions())
	doc := diff.NewDocument("- [ ] open\n\n## Archive\n- [x] old\n")

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, doc.Modified)
}

func TestArchiveCustomHeading(t *testing.T) {
	a := newArchiver(t, Options{Heading: "Done", HeadingLevel: 3})
	doc := diff.NewDocument("- [x] task\n### Done\n")

	changed, err := a.Run(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "### Done\n- [x] task\n", doc.Text())
}
