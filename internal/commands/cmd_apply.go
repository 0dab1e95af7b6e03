package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/toggle"
	"github.com/colonyops/tickdown/internal/core/txn"
	"github.com/colonyops/tickdown/pkg/iojson"
	"github.com/colonyops/tickdown/pkg/randid"
)

// ApplyInput is the JSON schema accepted by tickdown apply.
type ApplyInput struct {
	Ops []ApplyOp `json:"ops"`
}

// ApplyOp is one operation against one item.
type ApplyOp struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Op    string `json:"op"` // check, uncheck, toggle, tag_add, tag_rm
	State string `json:"state,omitempty"`
	Tag   string `json:"tag,omitempty"`
	Value string `json:"value,omitempty"`
}

// ApplyCmd implements the apply command: a batch of operations from JSON
// input, grouped per file and applied in one transaction each.
type ApplyCmd struct {
	flags *Flags
	fr    *iojson.FileReader[ApplyInput]
}

// NewApplyCmd creates a new apply command.
func NewApplyCmd(flags *Flags) *ApplyCmd {
	return &ApplyCmd{
		flags: flags,
		fr:    &iojson.FileReader[ApplyInput]{},
	}
}

// Register adds the apply command to the application.
func (cmd *ApplyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "apply",
		Usage: "Apply a batch of operations from JSON input",
		UsageText: `tickdown apply [options]

Read from stdin:
  echo '{"ops":[{"file":"notes.md","line":4,"op":"check"}]}' | tickdown apply

Read from file:
  tickdown apply -f ops.json`,
		Description: `Applies multiple operations in one pass. Operations are grouped by
file; each file is rewritten once, with all of its state changes run
through a single propagation pass so batch semantics apply.

Input JSON schema:
  {
    "ops": [
      {"file": "notes.md", "line": 4, "op": "check"},
      {"file": "notes.md", "line": 9, "op": "toggle", "state": "pending"},
      {"file": "inbox.md", "line": 2, "op": "tag_add", "tag": "due", "value": "2026-09-01"},
      {"file": "inbox.md", "line": 2, "op": "tag_rm", "tag": "priority"}
    ]
  }

Fields:
  file  - Required. Document path.
  line  - Required. 1-based line of the target item.
  op    - Required. One of check, uncheck, toggle, tag_add, tag_rm.
  state - Optional. Explicit target state for toggle.
  tag   - Required for tag_add and tag_rm.
  value - Optional tag value for tag_add.

Output is JSON with a batch ID and a per-file result.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

type applyResult struct {
	File    string `json:"file"`
	Ops     int    `json:"ops"`
	Changed int    `json:"changed"`
}

type applyOutput struct {
	BatchID string        `json:"batch_id"`
	Results []applyResult `json:"results"`
}

func (cmd *ApplyCmd) run(ctx context.Context, c *cli.Command) error {
	batchID := randid.Generate(6)

	input, err := cmd.fr.Read()
	if err != nil {
		return iojson.WriteError(fmt.Sprintf("read input: %s", err), nil)
	}

	if err := validateOps(input.Ops); err != nil {
		return iojson.WriteError("invalid input", map[string]any{"error": err.Error()})
	}

	logger := log.With().Str("batch_id", batchID).Logger()
	logger.Info().Int("ops", len(input.Ops)).Msg("starting batch apply")

	// Group by file, preserving op order within each file.
	var files []string
	byFile := map[string][]ApplyOp{}
	for _, op := range input.Ops {
		if _, ok := byFile[op.File]; !ok {
			files = append(files, op.File)
		}
		byFile[op.File] = append(byFile[op.File], op)
	}

	out := applyOutput{BatchID: batchID}
	for _, file := range files {
		changed, err := cmd.applyFile(file, byFile[file])
		if err != nil {
			logger.Error().Err(err).Str("file", file).Msg("batch apply failed")
			return iojson.WriteError(fmt.Sprintf("apply %s: %s", file, err), map[string]any{
				"batch_id": batchID,
			})
		}
		out.Results = append(out.Results, applyResult{
			File:    file,
			Ops:     len(byFile[file]),
			Changed: changed,
		})
	}

	logger.Info().Msg("batch apply complete")
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
}

// applyFile runs all ops for one file in a single transaction. Toggle-class
// ops are collected into one propagation pass so the batch tie-break rules
// apply across the whole selection.
func (cmd *ApplyCmd) applyFile(file string, ops []ApplyOp) (int, error) {
	s, err := cmd.flags.Open(file)
	if err != nil {
		return 0, err
	}

	eng := toggle.NewEngine(s.States, cmd.flags.Config.Policy())

	var explicit []toggle.Change
	type tagOp struct {
		op   ApplyOp
		item *parse.Item
	}
	var tagOps []tagOp

	for _, op := range ops {
		item, err := s.ItemAtLine(op.Line)
		if err != nil {
			return 0, err
		}

		switch op.Op {
		case "check", "uncheck", "toggle":
			state, err := targetState(s, eng, item, op)
			if err != nil {
				return 0, err
			}
			explicit = append(explicit, toggle.Change{ID: item.ID, State: state})
		case "tag_add", "tag_rm":
			tagOps = append(tagOps, tagOp{op: op, item: item})
		}
	}

	changes := eng.Propagate(s.Map, explicit)

	var applyErr error
	runErr := txn.Run(s.Doc, func(tx *txn.Tx) {
		applyErr = eng.Apply(tx, s.Map, changes)
		for _, t := range tagOps {
			switch t.op.Op {
			case "tag_add":
				s.Meta.Add(tx, t.item, t.op.Tag, t.op.Value)
			case "tag_rm":
				s.Meta.Remove(tx, t.item, t.op.Tag)
			}
		}
	})
	if err := errors.Join(runErr, applyErr); err != nil {
		return 0, err
	}

	if !s.Doc.Modified {
		return 0, nil
	}

	if err := s.Save(); err != nil {
		return 0, err
	}

	return len(changes) + len(tagOps), nil
}

func targetState(s *Session, eng *toggle.Engine, item *parse.Item, op ApplyOp) (string, error) {
	switch op.Op {
	case "check":
		st, _ := s.States.Canonical(pattern.ClassChecked)
		return st.Name, nil
	case "uncheck":
		st, _ := s.States.Canonical(pattern.ClassUnchecked)
		return st.Name, nil
	default: // toggle
		if op.State != "" {
			if _, ok := s.States.ByName(op.State); !ok {
				return "", fmt.Errorf("unknown state %q", op.State)
			}
			return op.State, nil
		}
		return eng.Toggle(item), nil
	}
}

var validApplyOps = map[string]bool{
	"check":   true,
	"uncheck": true,
	"toggle":  true,
	"tag_add": true,
	"tag_rm":  true,
}

func validateOps(ops []ApplyOp) error {
	if len(ops) == 0 {
		return criterio.NewFieldErrors("ops", fmt.Errorf("at least one operation is required"))
	}

	var errs criterio.FieldErrorsBuilder
	for i, op := range ops {
		field := fmt.Sprintf("ops[%d]", i)

		if op.File == "" {
			errs = errs.Append(field+".file", fmt.Errorf("file is required"))
		}
		if op.Line < 1 {
			errs = errs.Append(field+".line", fmt.Errorf("line must be 1 or greater"))
		}
		if !validApplyOps[op.Op] {
			errs = errs.Append(field+".op", fmt.Errorf("must be one of check, uncheck, toggle, tag_add, tag_rm"))
		}
		if (op.Op == "tag_add" || op.Op == "tag_rm") && !tagNameRe.MatchString(op.Tag) {
			errs = errs.Append(field+".tag", fmt.Errorf("invalid tag name %q", op.Tag))
		}
	}

	return errs.ToError()
}
