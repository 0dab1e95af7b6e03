// Package txn queues model-mutating operations against one document and
// flushes all resulting hunks as a single atomic edit. Operations run in
// FIFO order and may enqueue further operations while they execute; the
// queue drains fully before anything is applied.
package txn

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/logging"
)

// Op is one queued operation. It receives the transaction so it can queue
// hunks and enqueue follow-up operations.
type Op func(tx *Tx) error

// Tx is a live transaction bound to one document. It is only valid inside
// the body passed to Run.
type Tx struct {
	doc   *diff.Document
	queue []Op
	hunks []diff.Hunk
	errs  []error
	log   zerolog.Logger
}

// Doc returns the document the transaction is bound to. The document text
// does not change until the transaction flushes, so ops always observe the
// snapshot the transaction started from.
func (tx *Tx) Doc() *diff.Document { return tx.doc }

// AddOp enqueues an operation. Operations added during the drain (for
// example from a metadata callback) still run before the transaction
// completes and before any hunk is applied.
func (tx *Tx) AddOp(op Op) {
	tx.queue = append(tx.queue, op)
}

// Queue buffers hunks for the final flush.
func (tx *Tx) Queue(hunks ...diff.Hunk) {
	tx.hunks = append(tx.hunks, hunks...)
}

// Run executes body against the document, drains the operation queue, and
// applies every buffered hunk as one atomic edit.
//
// A failing or panicking operation does not abort the transaction: its
// error is recorded, hunks queued by earlier operations stay queued, and
// later operations (including any cleanup the failing op enqueued) still
// run. Run returns the joined errors after the flush.
func Run(doc *diff.Document, body func(tx *Tx)) error {
	tx := &Tx{
		doc: doc,
		log: logging.Component("txn"),
	}

	body(tx)

	for len(tx.queue) > 0 {
		op := tx.queue[0]
		tx.queue = tx.queue[1:]
		tx.runOp(op)
	}

	diff.ApplyDiff(doc, tx.hunks)

	return errors.Join(tx.errs...)
}

func (tx *Tx) runOp(op Op) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("operation panicked: %v", r)
			tx.log.Error().Err(err).Msg("transaction op recovered")
			tx.errs = append(tx.errs, err)
		}
	}()

	if err := op(tx); err != nil {
		tx.log.Error().Err(err).Msg("transaction op failed")
		tx.errs = append(tx.errs, err)
	}
}
