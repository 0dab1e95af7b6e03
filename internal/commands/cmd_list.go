package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/styles"
	"github.com/colonyops/tickdown/pkg/iojson"
)

type ListCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
	tagFilter  string
	state      string
}

// NewListCmd creates a new list command.
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the list command to the application.
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List todo items in a document",
		UsageText: "tickdown list <file> [--json] [--tag <name>] [--state <name>]",
		Description: `Prints the item tree of a checklist document.

Output is styled when stdout is a terminal and plain otherwise.
Use --json for JSON-lines output with one record per item.

Examples:
  tickdown list notes.md
  tickdown list notes.md --tag due
  tickdown list notes.md --state checked --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "tag",
				Usage:       "only items carrying this tag",
				Destination: &cmd.tagFilter,
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "only items in this state",
				Destination: &cmd.state,
			},
		},
		Action: cmd.run,
	})

	return app
}

// itemInfo is the JSON output format for tickdown list --json.
type itemInfo struct {
	Line  int               `json:"line"`
	Depth int               `json:"depth"`
	State string            `json:"state"`
	Text  string            `json:"text"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: tickdown list <file>")
	}

	s, err := cmd.flags.Open(c.Args().Get(0))
	if err != nil {
		return err
	}

	if cmd.state != "" {
		if _, ok := s.States.ByName(cmd.state); !ok {
			return fmt.Errorf("unknown state %q", cmd.state)
		}
	}

	canonicalTag := cmd.tagFilter
	if canonicalTag != "" {
		canonicalTag = s.Meta.Canonical(canonicalTag)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, id := range s.Map.Order {
			item := s.Map.Items[id]
			if !cmd.matches(s, item, canonicalTag) {
				continue
			}
			if err := iojson.WriteLine(out, itemInfo{
				Line:  item.Range.Start.Row + 1,
				Depth: depthOf(s.Map, item),
				State: item.State,
				Text:  item.Text(s.Doc.Lines()),
				Tags:  tagValues(item),
			}); err != nil {
				return fmt.Errorf("encode item: %w", err)
			}
		}
		return nil
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))

	var checked, total int
	for _, id := range s.Map.Order {
		item := s.Map.Items[id]
		if !cmd.matches(s, item, canonicalTag) {
			continue
		}
		total++
		if cmd.classOf(s, item) == pattern.ClassChecked {
			checked++
		}

		line := fmt.Sprintf("%s%s %s",
			strings.Repeat("  ", depthOf(s.Map, item)),
			item.TodoMarker,
			item.Text(s.Doc.Lines()),
		)
		if styled {
			line = cmd.styleFor(s, item).Render(line)
		}
		_, _ = fmt.Fprintln(out, line)
	}

	if total == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No items found")
		return nil
	}

	summary := fmt.Sprintf("%d item(s), %d checked", total, checked)
	if styled {
		summary = styles.Muted.Render(summary)
	}
	_, _ = fmt.Fprintln(out, summary)

	return nil
}

func (cmd *ListCmd) matches(s *Session, item *parse.Item, canonicalTag string) bool {
	if cmd.state != "" && item.State != cmd.state {
		return false
	}
	if canonicalTag != "" {
		if _, ok := item.Meta.Get(canonicalTag); !ok {
			return false
		}
	}
	return true
}

func (cmd *ListCmd) classOf(s *Session, item *parse.Item) pattern.Class {
	st, ok := s.States.ByName(item.State)
	if !ok {
		return pattern.ClassCustom
	}
	return st.Class
}

func (cmd *ListCmd) styleFor(s *Session, item *parse.Item) lipgloss.Style {
	switch cmd.classOf(s, item) {
	case pattern.ClassChecked:
		return styles.Checked
	case pattern.ClassUnchecked:
		return styles.Unchecked
	default:
		return styles.Custom
	}
}

func depthOf(tm *parse.TodoMap, item *parse.Item) int {
	depth := 0
	for item.Parent != parse.NoParent {
		item = tm.Items[item.Parent]
		depth++
	}
	return depth
}

func tagValues(item *parse.Item) map[string]string {
	entries := item.Meta.All()
	if len(entries) == 0 {
		return nil
	}
	tags := make(map[string]string, len(entries))
	for _, e := range entries {
		tags[e.Canonical()] = e.Value
	}
	return tags
}
