package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/archive"
	"github.com/colonyops/tickdown/internal/core/logging"
)

// ArchiveCmd implements the archive command.
type ArchiveCmd struct {
	flags *Flags
}

// NewArchiveCmd creates a new archive command.
func NewArchiveCmd(flags *Flags) *ArchiveCmd {
	return &ArchiveCmd{flags: flags}
}

// Register adds the archive command to the application.
func (cmd *ArchiveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "archive",
		Usage:     "Move fully-checked items under the archive heading",
		UsageText: "tickdown archive <glob>...",
		Description: `Moves every fully-checked top-level item (with its whole subtree)
under the configured archive heading, creating the heading when absent.
The operation is idempotent: a second run changes nothing.

Globs use ** for recursive matching.

Examples:
  tickdown archive notes.md
  tickdown archive 'docs/**/*.md'`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ArchiveCmd) run(ctx context.Context, c *cli.Command) error {
	paths, err := expandGlobs(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: tickdown archive <glob>...")
	}

	out := c.Root().Writer

	for _, path := range paths {
		ctx := logging.WithDocPath(ctx, path)

		s, err := cmd.flags.Open(path)
		if err != nil {
			return err
		}

		arch := archive.New(s.States, s.Parser, cmd.flags.Config.ArchiveOptions())

		changed, err := arch.Run(s.Doc)
		if err != nil {
			return fmt.Errorf("archive %s: %w", path, err)
		}

		if !changed {
			_, _ = fmt.Fprintf(out, "%s: unchanged\n", path)
			continue
		}

		if err := s.Save(); err != nil {
			return err
		}

		log.Debug().Ctx(ctx).Msg("archived checked items")
		_, _ = fmt.Fprintf(out, "%s: archived\n", path)
	}

	return nil
}

// expandGlobs resolves doublestar patterns against the filesystem. Literal
// paths pass through unchanged so missing files still surface as load
// errors rather than silently matching nothing.
func expandGlobs(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string

	for _, pat := range patterns {
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pat, err)
		}

		if matches == nil && !hasMeta(pat) {
			matches = []string{pat}
		}

		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func hasMeta(pat string) bool {
	for _, r := range pat {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
