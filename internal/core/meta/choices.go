package meta

import (
	"context"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/parse"
)

// ChoiceSource supplies the allowed values for a tag. Exactly three
// variants exist: a static list, a synchronous function, and a deferred
// function that delivers its result through a completion callback.
type ChoiceSource interface {
	isChoiceSource()
}

// StaticChoices is a fixed, ordered list of allowed values.
type StaticChoices []string

func (StaticChoices) isChoiceSource() {}

// ChoiceFunc computes the allowed values synchronously.
type ChoiceFunc func(item *parse.Item, doc *diff.Document) []string

func (ChoiceFunc) isChoiceSource() {}

// DeferredChoices computes the allowed values asynchronously and must call
// done exactly once with the result.
type DeferredChoices func(item *parse.Item, doc *diff.Document, done func([]string))

func (DeferredChoices) isChoiceSource() {}

// GetChoices resolves the allowed values for a tag and delivers them to
// onResult, regardless of which source variant the tag is configured with.
// A tag without a choice source resolves to nil immediately.
//
// For deferred sources, a result arriving after ctx is done is discarded:
// the originating context has been torn down and the values must not be
// applied.
func (e *Engine) GetChoices(ctx context.Context, tag string, item *parse.Item, doc *diff.Document, onResult func([]string)) {
	def, ok := e.defs[e.Canonical(tag)]
	if !ok || def.Choices == nil {
		onResult(nil)
		return
	}

	switch src := def.Choices.(type) {
	case StaticChoices:
		onResult(src)
	case ChoiceFunc:
		onResult(src(item, doc))
	case DeferredChoices:
		src(item, doc, func(values []string) {
			if ctx.Err() != nil {
				e.log.Debug().Str("tag", tag).Msg("discarding late choice result")
				return
			}
			onResult(values)
		})
	}
}
