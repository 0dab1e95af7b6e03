package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/docfile"
)

// FmtCmd implements the fmt command.
type FmtCmd struct {
	flags *Flags

	// flags
	check bool
}

// NewFmtCmd creates a new fmt command.
func NewFmtCmd(flags *Flags) *FmtCmd {
	return &FmtCmd{flags: flags}
}

// Register adds the fmt command to the application.
func (cmd *FmtCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "fmt",
		Usage:     "Normalize marker tokens in documents",
		UsageText: "tickdown fmt [--check] <glob>...",
		Description: `Round-trips each document through the live form, normalizing todo
marker tokens to their canonical spelling. Documents that are already
normalized are left untouched.

Use --check to report files that would change without writing them.

Examples:
  tickdown fmt notes.md
  tickdown fmt --check 'docs/**/*.md'`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "check",
				Usage:       "report files that need formatting without writing",
				Destination: &cmd.check,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *FmtCmd) run(ctx context.Context, c *cli.Command) error {
	paths, err := expandGlobs(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: tickdown fmt <glob>...")
	}

	if cmd.flags.ConfigErr != nil {
		return cmd.flags.ConfigErr
	}

	states, err := cmd.flags.Config.StateSet()
	if err != nil {
		return fmt.Errorf("build state set: %w", err)
	}
	codec := docfile.NewCodec(states)

	out := c.Root().Writer
	needsFmt := 0

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		formatted := codec.ToDisk(codec.ToLive(string(data)))
		if formatted == string(data) {
			continue
		}

		needsFmt++
		if cmd.check {
			_, _ = fmt.Fprintln(out, path)
			continue
		}

		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(out, "%s: formatted\n", path)
	}

	if cmd.check && needsFmt > 0 {
		return fmt.Errorf("%d file(s) need formatting", needsFmt)
	}

	return nil
}
