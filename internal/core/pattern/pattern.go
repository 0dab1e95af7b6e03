// Package pattern recognizes list markers, completion-state tokens, and
// metadata tags in raw text lines. Matches are returned as structured spans
// so callers can build precise text edits from them.
package pattern

import (
	"fmt"
	"strings"

	"github.com/colonyops/tickdown/internal/core/textpos"
)

// Class groups states into the two canonical propagation classes plus
// custom states, which are never targets of forced propagation.
type Class string

const (
	ClassUnchecked Class = "unchecked"
	ClassChecked   Class = "checked"
	ClassCustom    Class = "custom"
)

// State describes one completion state: its bracket character used in the
// on-disk form and its symbolic marker used in the live form.
type State struct {
	Name   string
	Char   byte   // character between brackets on disk, e.g. 'x' in [x]
	Marker string // symbolic glyph in the live form, e.g. ✔
	Class  Class
	Order  int
}

// StateSet is the configured, ordered set of completion states.
type StateSet struct {
	states   []State
	byName   map[string]State
	byChar   map[byte]State
	byMarker map[string]State
}

// DefaultStates returns the minimal state set: unchecked and checked.
func DefaultStates() []State {
	return []State{
		{Name: "unchecked", Char: ' ', Marker: "□", Class: ClassUnchecked, Order: 1}, // □
		{Name: "checked", Char: 'x', Marker: "✔", Class: ClassChecked, Order: 2},     // ✔
	}
}

// NewStateSet builds a StateSet from an ordered list of states. It requires
// at least one state of each canonical class and unique names, chars, and
// markers.
func NewStateSet(states []State) (*StateSet, error) {
	s := &StateSet{
		states:   states,
		byName:   make(map[string]State, len(states)),
		byChar:   make(map[byte]State, len(states)),
		byMarker: make(map[string]State, len(states)),
	}

	for _, st := range states {
		if st.Marker == "" {
			return nil, fmt.Errorf("state %q has no marker", st.Name)
		}
		if _, ok := s.byName[st.Name]; ok {
			return nil, fmt.Errorf("duplicate state name %q", st.Name)
		}
		if _, ok := s.byChar[st.Char]; ok {
			return nil, fmt.Errorf("duplicate state char %q", string(st.Char))
		}
		if _, ok := s.byMarker[st.Marker]; ok {
			return nil, fmt.Errorf("duplicate state marker %q", st.Marker)
		}
		s.byName[st.Name] = st
		s.byChar[st.Char] = st
		s.byMarker[st.Marker] = st
	}

	if _, ok := s.Canonical(ClassUnchecked); !ok {
		return nil, fmt.Errorf("no state with class %q", ClassUnchecked)
	}
	if _, ok := s.Canonical(ClassChecked); !ok {
		return nil, fmt.Errorf("no state with class %q", ClassChecked)
	}

	return s, nil
}

// States returns the configured states in order.
func (s *StateSet) States() []State { return s.states }

// ByName looks up a state by name.
func (s *StateSet) ByName(name string) (State, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// Canonical returns the first configured state of the given class. This is
// the state forced onto items by propagation.
func (s *StateSet) Canonical(class Class) (State, bool) {
	for _, st := range s.states {
		if st.Class == class {
			return st, true
		}
	}
	return State{}, false
}

// ListItemMatch describes a recognized list-item line.
type ListItemMatch struct {
	Indent       int    // leading whitespace width in runes
	Marker       string // list marker text, e.g. "-", "*", "1."
	MarkerStart  int    // byte column of the marker
	ContentStart int    // byte column of the first character after "<marker> "
}

// MatchListItem tests whether the line is a list item: optional indentation,
// an unordered marker (-, *, +) or an ordered marker (digits followed by
// "." or ")"), then at least one space or end of line.
func MatchListItem(line string) (ListItemMatch, bool) {
	start := textpos.IndentEnd(line)
	if start >= len(line) {
		return ListItemMatch{}, false
	}

	rest := line[start:]
	var marker string

	switch rest[0] {
	case '-', '*', '+':
		marker = rest[:1]
	default:
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i >= len(rest) || (rest[i] != '.' && rest[i] != ')') {
			return ListItemMatch{}, false
		}
		marker = rest[:i+1]
	}

	after := start + len(marker)
	if after < len(line) && line[after] != ' ' && line[after] != '\t' {
		return ListItemMatch{}, false
	}

	content := after
	for content < len(line) && line[content] == ' ' {
		content++
	}

	return ListItemMatch{
		Indent:       textpos.IndentWidth(line),
		Marker:       marker,
		MarkerStart:  start,
		ContentStart: content,
	}, true
}

// TodoMatch describes a recognized todo line: a list item whose content
// begins with a completion-state token.
type TodoMatch struct {
	ListItemMatch
	State       State
	Token       string // the token exactly as written, e.g. "[x]" or "✔"
	TokenStart  int    // byte column of the token
	TokenEnd    int    // byte column just past the token
	Bracketed   bool   // true for the on-disk [c] form
	ContentCol  int    // byte column of the item text after the token
}

// MatchTodo tests whether the line opens a todo item. The content after the
// list marker must begin with either a bracketed checkbox token recognized
// by the state set, or one of the configured symbolic markers followed by a
// space or end of line.
func (s *StateSet) MatchTodo(line string) (TodoMatch, bool) {
	li, ok := MatchListItem(line)
	if !ok {
		return TodoMatch{}, false
	}

	rest := line[li.ContentStart:]

	// On-disk bracket form: [c]
	if len(rest) >= 3 && rest[0] == '[' && rest[2] == ']' {
		if st, ok := s.byChar[rest[1]]; ok {
			return s.todoMatch(line, li, st, rest[:3], true), true
		}
	}

	// Live symbolic form: one configured marker glyph.
	for _, st := range s.states {
		if strings.HasPrefix(rest, st.Marker) {
			after := len(st.Marker)
			if after < len(rest) && rest[after] != ' ' && rest[after] != '\t' {
				continue
			}
			return s.todoMatch(line, li, st, st.Marker, false), true
		}
	}

	return TodoMatch{}, false
}

func (s *StateSet) todoMatch(line string, li ListItemMatch, st State, token string, bracketed bool) TodoMatch {
	end := li.ContentStart + len(token)
	content := end
	for content < len(line) && line[content] == ' ' {
		content++
	}
	return TodoMatch{
		ListItemMatch: li,
		State:         st,
		Token:         token,
		TokenStart:    li.ContentStart,
		TokenEnd:      end,
		Bracketed:     bracketed,
		ContentCol:    content,
	}
}

// HeadingLevel returns the ATX heading level of the line (1-6), or 0 when
// the line is not a heading.
func HeadingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(line) && line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}
