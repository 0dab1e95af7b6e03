package docfile

import (
	"fmt"
	"sync"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
)

// SaveHooks dispatches save notifications to registered listeners. Each
// listener fires exactly once per save: a listener that triggers another
// save while the dispatch is running does not re-enter the hook set.
// Panicking listeners are reported and do not stop the remaining listeners.
type SaveHooks struct {
	mu     sync.Mutex
	hooks  []func(doc *diff.Document)
	firing bool
}

// Register adds a listener. Listeners run in registration order.
func (s *SaveHooks) Register(fn func(doc *diff.Document)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Fire notifies every listener of one save of doc. Reentrant calls made
// from inside a listener are dropped so a single save command never fires
// a listener twice.
func (s *SaveHooks) Fire(doc *diff.Document) {
	s.mu.Lock()
	if s.firing {
		s.mu.Unlock()
		return
	}
	s.firing = true
	hooks := make([]func(*diff.Document), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.firing = false
		s.mu.Unlock()
	}()

	log := logging.Component("savehook")
	for _, fn := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("panic", fmt.Sprint(r)).Msg("save hook panicked")
				}
			}()
			fn(doc)
		}()
	}
}
