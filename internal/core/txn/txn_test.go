package txn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tickdown/internal/core/diff"
)

func TestRunAppliesHunksOnce(t *testing.T) {
	doc := diff.NewDocument("- [ ] one\n- [ ] two\n")

	err := Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(0, 2, 5, "[x]"))
			return nil
		})
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(1, 2, 5, "[x]"))
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, "- [x] one\n- [x] two\n", doc.Text())
}

func TestRunFIFOOrder(t *testing.T) {
	doc := diff.NewDocument("x\n")
	var order []int

	_ = Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error { order = append(order, 1); return nil })
		tx.AddOp(func(tx *Tx) error { order = append(order, 2); return nil })
		tx.AddOp(func(tx *Tx) error { order = append(order, 3); return nil })
	})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestRunOpsEnqueuedDuringDrain(t *testing.T) {
	// An op enqueued from within another op runs before the transaction
	// completes, and its hunks join the same flush.
	doc := diff.NewDocument("- [ ] task\n")
	var order []string

	err := Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error {
			order = append(order, "outer")
			tx.Queue(diff.TextReplace(0, 2, 5, "[x]"))
			tx.AddOp(func(tx *Tx) error {
				order = append(order, "nested")
				tx.Queue(diff.TextInsert(0, 10, " @done(yes)"))
				return nil
			})
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "nested"}, order)
	assert.Equal(t, "- [x] task @done(yes)\n", doc.Text())
}

func TestRunOpsObserveSnapshotUntilFlush(t *testing.T) {
	doc := diff.NewDocument("- [ ] task\n")
	var seen string

	_ = Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(0, 2, 5, "[x]"))
			return nil
		})
		tx.AddOp(func(tx *Tx) error {
			seen = tx.Doc().Line(0)
			return nil
		})
	})

	assert.Equal(t, "- [ ] task", seen, "document unchanged until the batch flushes")
}

func TestRunErrorDoesNotAbortTransaction(t *testing.T) {
	doc := diff.NewDocument("- [ ] one\n- [ ] two\n")
	boom := errors.New("boom")

	err := Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(0, 2, 5, "[x]"))
			return nil
		})
		tx.AddOp(func(tx *Tx) error { return boom })
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(1, 2, 5, "[x]"))
			return nil
		})
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "- [x] one\n- [x] two\n", doc.Text(),
		"hunks from ops before and after the failure still apply")
}

func TestRunPanicIsContained(t *testing.T) {
	doc := diff.NewDocument("- [ ] one\n")
	var cleanupRan bool

	err := Run(doc, func(tx *Tx) {
		tx.AddOp(func(tx *Tx) error {
			tx.Queue(diff.TextReplace(0, 2, 5, "[x]"))
			tx.AddOp(func(tx *Tx) error {
				cleanupRan = true
				return nil
			})
			panic("kaboom")
		})
	})

	require.ErrorContains(t, err, "kaboom")
	assert.True(t, cleanupRan, "ops enqueued by a panicking op still run")
	assert.Equal(t, "- [x] one\n", doc.Text())
}
