package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStates(t *testing.T, states []State) *StateSet {
	t.Helper()
	s, err := NewStateSet(states)
	require.NoError(t, err)
	return s
}

func TestNewStateSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		states  []State
		wantErr string
	}{
		{
			name:   "defaults are valid",
			states: DefaultStates(),
		},
		{
			name: "custom states allowed",
			states: append(DefaultStates(),
				State{Name: "pending", Char: '.', Marker: "◐", Class: ClassCustom, Order: 3},
			),
		},
		{
			name: "duplicate name",
			states: append(DefaultStates(),
				State{Name: "checked", Char: 'X', Marker: "✓", Class: ClassCustom, Order: 3},
			),
			wantErr: "duplicate state name",
		},
		{
			name: "duplicate char",
			states: append(DefaultStates(),
				State{Name: "done2", Char: 'x', Marker: "✓", Class: ClassCustom, Order: 3},
			),
			wantErr: "duplicate state char",
		},
		{
			name: "missing checked class",
			states: []State{
				{Name: "unchecked", Char: ' ', Marker: "□", Class: ClassUnchecked, Order: 1},
			},
			wantErr: `no state with class "checked"`,
		},
		{
			name: "missing marker",
			states: []State{
				{Name: "unchecked", Char: ' ', Class: ClassUnchecked, Order: 1},
			},
			wantErr: "has no marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStateSet(tt.states)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMatchListItem(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ListItemMatch
		ok   bool
	}{
		{
			name: "dash",
			line: "- task",
			want: ListItemMatch{Indent: 0, Marker: "-", MarkerStart: 0, ContentStart: 2},
			ok:   true,
		},
		{
			name: "indented star",
			line: "  * task",
			want: ListItemMatch{Indent: 2, Marker: "*", MarkerStart: 2, ContentStart: 4},
			ok:   true,
		},
		{
			name: "ordered dot",
			line: "12. task",
			want: ListItemMatch{Indent: 0, Marker: "12.", MarkerStart: 0, ContentStart: 4},
			ok:   true,
		},
		{
			name: "ordered paren",
			line: " 3) task",
			want: ListItemMatch{Indent: 1, Marker: "3)", MarkerStart: 1, ContentStart: 4},
			ok:   true,
		},
		{
			name: "empty item",
			line: "-",
			want: ListItemMatch{Indent: 0, Marker: "-", MarkerStart: 0, ContentStart: 1},
			ok:   true,
		},
		{name: "plain text", line: "just text"},
		{name: "blank", line: "   "},
		{name: "dash glued to text", line: "-task"},
		{name: "digits without suffix", line: "12 task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchListItem(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMatchTodo(t *testing.T) {
	states := mustStates(t, append(DefaultStates(),
		State{Name: "pending", Char: '.', Marker: "◐", Class: ClassCustom, Order: 3},
	))

	tests := []struct {
		name       string
		line       string
		ok         bool
		state      string
		token      string
		bracketed  bool
		contentCol int
	}{
		{name: "unchecked bracket", line: "- [ ] task", ok: true, state: "unchecked", token: "[ ]", bracketed: true, contentCol: 6},
		{name: "checked bracket", line: "- [x] task", ok: true, state: "checked", token: "[x]", bracketed: true, contentCol: 6},
		{name: "custom bracket", line: "- [.] task", ok: true, state: "pending", token: "[.]", bracketed: true, contentCol: 6},
		{name: "unchecked symbol", line: "- □ task", ok: true, state: "unchecked", token: "□", contentCol: 6},
		{name: "checked symbol indented", line: "  - ✔ done", ok: true, state: "checked", token: "✔", contentCol: 8},
		{name: "empty todo", line: "- [ ]", ok: true, state: "unchecked", token: "[ ]", bracketed: true, contentCol: 5},
		{name: "unknown bracket char", line: "- [?] task"},
		{name: "plain list item", line: "- task"},
		{name: "symbol glued to text", line: "- ✔done"},
		{name: "not a list item", line: "[x] task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := states.MatchTodo(tt.line)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.state, got.State.Name)
			assert.Equal(t, tt.token, got.Token)
			assert.Equal(t, tt.bracketed, got.Bracketed)
			assert.Equal(t, tt.contentCol, got.ContentCol)
			assert.Equal(t, got.TokenStart+len(tt.token), got.TokenEnd)
		})
	}
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, HeadingLevel("# Title"))
	assert.Equal(t, 2, HeadingLevel("## Archive"))
	assert.Equal(t, 6, HeadingLevel("###### deep"))
	assert.Equal(t, 0, HeadingLevel("####### too deep"))
	assert.Equal(t, 0, HeadingLevel("#hashtag"))
	assert.Equal(t, 0, HeadingLevel("text"))
}
