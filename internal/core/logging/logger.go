package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component derives a logger from the global one tagged with the owning
// subsystem, e.g. Component("parse") or Component("watch"). Every package
// that logs gets its logger here so output is filterable by the "cmp" key.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
