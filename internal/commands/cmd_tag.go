package commands

import (
	"context"
	"fmt"
	"regexp"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/txn"
)

var tagNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// TagCmd implements the tag command group.
type TagCmd struct {
	flags *Flags

	// flags
	line  int
	tag   string
	value string
}

// NewTagCmd creates a new tag command.
func NewTagCmd(flags *Flags) *TagCmd {
	return &TagCmd{flags: flags}
}

func (cmd *TagCmd) lineFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "line",
		Aliases:     []string{"l"},
		Usage:       "line number of the item (1-based)",
		Required:    true,
		Destination: &cmd.line,
	}
}

func (cmd *TagCmd) tagFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "tag",
		Aliases:     []string{"t"},
		Usage:       "tag name",
		Required:    true,
		Destination: &cmd.tag,
	}
}

// Register adds the tag command to the application.
func (cmd *TagCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "tag",
		Usage: "Manage item metadata tags",
		Description: `Tag commands add, update, and remove @tag(value) metadata on items.

Configured tags are inserted at their sort-order position; unknown tags
go last. Aliases resolve to their canonical tag.

Examples:
  tickdown tag add notes.md --line 4 --tag due --value 2026-09-01
  tickdown tag rm notes.md --line 4 --tag due`,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add or update a tag on an item",
				UsageText: "tickdown tag add <file> --line <n> --tag <name> [--value <v>]",
				Flags: []cli.Flag{
					cmd.lineFlag(),
					cmd.tagFlag(),
					&cli.StringFlag{
						Name:        "value",
						Aliases:     []string{"v"},
						Usage:       "tag value",
						Destination: &cmd.value,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove a tag from an item",
				UsageText: "tickdown tag rm <file> --line <n> --tag <name>",
				Flags:     []cli.Flag{cmd.lineFlag(), cmd.tagFlag()},
				Action:    cmd.runRemove,
			},
		},
	})

	return app
}

func (cmd *TagCmd) runAdd(ctx context.Context, c *cli.Command) error {
	s, item, err := cmd.open(c)
	if err != nil {
		return err
	}

	if err := txn.Run(s.Doc, func(tx *txn.Tx) {
		s.Meta.Add(tx, item, cmd.tag, cmd.value)
	}); err != nil {
		return fmt.Errorf("add tag: %w", err)
	}

	if err := s.Save(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "added")
	return nil
}

func (cmd *TagCmd) runRemove(ctx context.Context, c *cli.Command) error {
	s, item, err := cmd.open(c)
	if err != nil {
		return err
	}

	removed := false
	if err := txn.Run(s.Doc, func(tx *txn.Tx) {
		removed = s.Meta.Remove(tx, item, cmd.tag)
	}); err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}

	if !removed {
		_, _ = fmt.Fprintf(c.Root().Writer, "tag %q not present\n", cmd.tag)
		return nil
	}

	if err := s.Save(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "removed")
	return nil
}

func (cmd *TagCmd) open(c *cli.Command) (*Session, *parse.Item, error) {
	if c.NArg() < 1 {
		return nil, nil, fmt.Errorf("usage: %s <file> --line <n> --tag <name>", c.FullName())
	}
	if !tagNameRe.MatchString(cmd.tag) {
		return nil, nil, fmt.Errorf("invalid tag name %q", cmd.tag)
	}

	s, err := cmd.flags.Open(c.Args().Get(0))
	if err != nil {
		return nil, nil, err
	}

	item, err := s.ItemAtLine(cmd.line)
	if err != nil {
		return nil, nil, err
	}

	return s, item, nil
}
