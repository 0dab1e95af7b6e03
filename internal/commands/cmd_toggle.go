package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/toggle"
	"github.com/colonyops/tickdown/internal/core/txn"
)

// ToggleCmd implements the toggle, check, and uncheck commands. All three
// share the same machinery: resolve the item at a line, compute the target
// state, propagate per policy, and write the result back.
type ToggleCmd struct {
	flags *Flags

	// flags
	line  int
	state string
}

// NewToggleCmd creates a new toggle command.
func NewToggleCmd(flags *Flags) *ToggleCmd {
	return &ToggleCmd{flags: flags}
}

func (cmd *ToggleCmd) lineFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "line",
		Aliases:     []string{"l"},
		Usage:       "line number of the item (1-based)",
		Required:    true,
		Destination: &cmd.line,
	}
}

// Register adds the toggle, check, and uncheck commands to the application.
func (cmd *ToggleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "toggle",
			Usage:     "Toggle the item at a line",
			UsageText: "tickdown toggle <file> --line <n> [--state <name>]",
			Description: `Flips the item between checked and unchecked, or sets an explicit
state with --state. State changes propagate to related items per the
configured propagation policy.

Examples:
  tickdown toggle notes.md --line 4
  tickdown toggle notes.md --line 4 --state pending`,
			Flags: []cli.Flag{
				cmd.lineFlag(),
				&cli.StringFlag{
					Name:        "state",
					Aliases:     []string{"s"},
					Usage:       "explicit target state name",
					Destination: &cmd.state,
				},
			},
			Action: cmd.runToggle,
		},
		&cli.Command{
			Name:      "check",
			Usage:     "Check the item at a line",
			UsageText: "tickdown check <file> --line <n>",
			Flags:     []cli.Flag{cmd.lineFlag()},
			Action:    cmd.runCheck,
		},
		&cli.Command{
			Name:      "uncheck",
			Usage:     "Uncheck the item at a line",
			UsageText: "tickdown uncheck <file> --line <n>",
			Flags:     []cli.Flag{cmd.lineFlag()},
			Action:    cmd.runUncheck,
		},
	)

	return app
}

func (cmd *ToggleCmd) runToggle(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(s *Session, eng *toggle.Engine, item *parse.Item) (string, error) {
		if cmd.state != "" {
			if _, ok := s.States.ByName(cmd.state); !ok {
				return "", fmt.Errorf("unknown state %q", cmd.state)
			}
			return cmd.state, nil
		}
		return eng.Toggle(item), nil
	})
}

func (cmd *ToggleCmd) runCheck(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(s *Session, _ *toggle.Engine, _ *parse.Item) (string, error) {
		st, _ := s.States.Canonical(pattern.ClassChecked)
		return st.Name, nil
	})
}

func (cmd *ToggleCmd) runUncheck(ctx context.Context, c *cli.Command) error {
	return cmd.apply(c, func(s *Session, _ *toggle.Engine, _ *parse.Item) (string, error) {
		st, _ := s.States.Canonical(pattern.ClassUnchecked)
		return st.Name, nil
	})
}

func (cmd *ToggleCmd) apply(c *cli.Command, target func(*Session, *toggle.Engine, *parse.Item) (string, error)) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: %s <file> --line <n>", c.FullName())
	}
	path := c.Args().Get(0)

	s, err := cmd.flags.Open(path)
	if err != nil {
		return err
	}

	item, err := s.ItemAtLine(cmd.line)
	if err != nil {
		return err
	}

	eng := toggle.NewEngine(s.States, cmd.flags.Config.Policy())

	state, err := target(s, eng, item)
	if err != nil {
		return err
	}

	changes := eng.Propagate(s.Map, []toggle.Change{{ID: item.ID, State: state}})
	if len(changes) == 0 {
		_, _ = fmt.Fprintln(c.Root().Writer, "no change")
		return nil
	}

	var applyErr error
	runErr := txn.Run(s.Doc, func(tx *txn.Tx) {
		applyErr = eng.Apply(tx, s.Map, changes)
	})
	if err := errors.Join(runErr, applyErr); err != nil {
		return fmt.Errorf("apply changes: %w", err)
	}

	if err := s.Save(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "%s: %d item(s) updated\n", path, len(changes))
	return nil
}
