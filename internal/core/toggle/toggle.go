// Package toggle computes the closure of completion-state changes required
// by the configured up/down propagation policy, and turns the resulting
// changes into marker edits.
package toggle

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/txn"
)

// Scope selects which relatives a propagation rule reaches.
type Scope string

const (
	ScopeNone   Scope = "none"
	ScopeDirect Scope = "direct_children"
	ScopeAll    Scope = "all_children"
)

// Policy holds the four independent propagation rules. The zero value
// disables all propagation.
type Policy struct {
	Enabled     bool
	CheckDown   Scope
	UncheckDown Scope
	CheckUp     Scope
	UncheckUp   Scope
}

// DefaultPolicy propagates checks to direct children and re-evaluates
// parents over their direct children.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:     true,
		CheckDown:   ScopeDirect,
		UncheckDown: ScopeNone,
		CheckUp:     ScopeDirect,
		UncheckUp:   ScopeDirect,
	}
}

// Change is one state assignment for an item.
type Change struct {
	ID    int
	State string
}

// Engine computes and applies smart-toggle closures.
type Engine struct {
	states *pattern.StateSet
	policy Policy
	log    zerolog.Logger
}

// NewEngine builds a propagation engine for the given states and policy.
func NewEngine(states *pattern.StateSet, policy Policy) *Engine {
	return &Engine{
		states: states,
		policy: policy,
		log:    logging.Component("toggle"),
	}
}

// Toggle returns the state an item flips to on a plain toggle: checked
// items become unchecked, everything else becomes checked.
func (e *Engine) Toggle(item *parse.Item) string {
	cur, _ := e.states.ByName(item.State)
	class := pattern.ClassUnchecked
	if cur.Class != pattern.ClassChecked {
		class = pattern.ClassChecked
	}
	st, _ := e.states.Canonical(class)
	return st.Name
}

// Propagate expands a batch of explicit state changes into the full set of
// changes the policy requires. The batch is processed in document order;
// items whose state already matches are dropped from the result. Every item
// appears at most once: a common ancestor whose children all converge on
// checked becomes checked exactly once.
//
// When propagation is disabled, only the explicit changes are returned.
func (e *Engine) Propagate(tm *parse.TodoMap, changes []Change) []Change {
	effective := make(map[int]string, len(changes))
	explicit := make(map[int]bool, len(changes))
	for _, c := range changes {
		effective[c.ID] = c.State
		explicit[c.ID] = true
	}

	if e.policy.Enabled {
		// Downward waves from the explicit changes, in document order.
		for _, id := range tm.Order {
			if explicit[id] {
				e.propagateDown(tm, id, effective, explicit)
			}
		}
		e.propagateUp(tm, effective, explicit)
	}

	return e.collect(tm, effective)
}

// propagateDown forces the canonical class state onto children per the
// down rules. Explicitly batched items keep their own assignment; custom
// states are never forced.
func (e *Engine) propagateDown(tm *parse.TodoMap, id int, effective map[int]string, explicit map[int]bool) {
	class := e.classOf(effective[id])

	var scope Scope
	switch class {
	case pattern.ClassChecked:
		scope = e.policy.CheckDown
	case pattern.ClassUnchecked:
		scope = e.policy.UncheckDown
	default:
		return
	}
	if scope == ScopeNone || scope == "" {
		return
	}

	forced, _ := e.states.Canonical(class)
	targets := tm.Items[id].Children
	if scope == ScopeAll {
		targets = tm.Descendants(id)
	}
	for _, child := range targets {
		if explicit[child] {
			continue
		}
		effective[child] = forced.Name
	}
}

// propagateUp re-evaluates ancestors bottom-up until a fixed point: a
// parent joins the checked class once all required children are checked,
// and leaves it once any required child is not. A parent changed this way
// can trigger a further wave on its own ancestors.
func (e *Engine) propagateUp(tm *parse.TodoMap, effective map[int]string, explicit map[int]bool) {
	checked, _ := e.states.Canonical(pattern.ClassChecked)
	unchecked, _ := e.states.Canonical(pattern.ClassUnchecked)

	for {
		changed := false

		// Walk items in reverse document order so children settle before
		// their parents within each pass.
		for i := len(tm.Order) - 1; i >= 0; i-- {
			id := tm.Order[i]
			item := tm.Items[id]
			if len(item.Children) == 0 || explicit[id] {
				continue
			}

			curClass := e.classOf(e.stateOf(tm, id, effective))
			if curClass == pattern.ClassCustom {
				// Custom states are never forced, upward or downward.
				continue
			}

			if scope := e.policy.CheckUp; scopeActive(scope) && curClass != pattern.ClassChecked {
				if e.childrenConverged(tm, id, scope, effective) {
					effective[id] = checked.Name
					changed = true
					continue
				}
			}

			if scope := e.policy.UncheckUp; scopeActive(scope) && curClass == pattern.ClassChecked {
				if e.anyUnchecked(tm, id, scope, effective) {
					effective[id] = unchecked.Name
					changed = true
				}
			}
		}

		if !changed {
			return
		}
	}
}

func scopeActive(s Scope) bool { return s != ScopeNone && s != "" }

// childrenConverged reports whether every child in scope is in the checked
// class. Children in custom states are ignored: they neither satisfy nor
// block the condition. A parent whose in-scope children are all custom
// never flips.
func (e *Engine) childrenConverged(tm *parse.TodoMap, id int, scope Scope, effective map[int]string) bool {
	ids := tm.Items[id].Children
	if scope == ScopeAll {
		ids = tm.Descendants(id)
	}

	sawChecked := false
	for _, child := range ids {
		switch e.classOf(e.stateOf(tm, child, effective)) {
		case pattern.ClassChecked:
			sawChecked = true
		case pattern.ClassUnchecked:
			return false
		}
	}
	return sawChecked
}

// anyUnchecked reports whether any child in scope is in the unchecked
// class. Custom states do not count as unchecked.
func (e *Engine) anyUnchecked(tm *parse.TodoMap, id int, scope Scope, effective map[int]string) bool {
	ids := tm.Items[id].Children
	if scope == ScopeAll {
		ids = tm.Descendants(id)
	}

	for _, child := range ids {
		if e.classOf(e.stateOf(tm, child, effective)) == pattern.ClassUnchecked {
			return true
		}
	}
	return false
}

func (e *Engine) stateOf(tm *parse.TodoMap, id int, effective map[int]string) string {
	if st, ok := effective[id]; ok {
		return st
	}
	return tm.Items[id].State
}

func (e *Engine) classOf(state string) pattern.Class {
	st, ok := e.states.ByName(state)
	if !ok {
		return pattern.ClassCustom
	}
	return st.Class
}

// collect drops assignments that match the parsed state and returns the
// rest in document order.
func (e *Engine) collect(tm *parse.TodoMap, effective map[int]string) []Change {
	var out []Change
	for _, id := range tm.Order {
		state, ok := effective[id]
		if !ok || state == tm.Items[id].State {
			continue
		}
		out = append(out, Change{ID: id, State: state})
	}
	return out
}

// Apply queues one marker-replacement hunk per change on the transaction.
// The hunk preserves the form already in the text: a bracketed token stays
// bracketed, a symbolic marker stays symbolic.
func (e *Engine) Apply(tx *txn.Tx, tm *parse.TodoMap, changes []Change) error {
	for _, c := range changes {
		item, ok := tm.Items[c.ID]
		if !ok {
			return fmt.Errorf("unknown item id %d", c.ID)
		}
		st, ok := e.states.ByName(c.State)
		if !ok {
			return fmt.Errorf("unknown state %q", c.State)
		}

		token := st.Marker
		if item.TodoMarker != "" && item.TodoMarker[0] == '[' {
			token = "[" + string(st.Char) + "]"
		}

		span := item.MarkerSpan
		tx.Queue(diff.MarkerReplace(span.Start.Row, span.Start.Col, span.End.Col, token))
	}
	return nil
}
