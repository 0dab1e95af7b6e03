package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/config"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "tickdown config validate [options]",
				Description: "Validates the configuration file, checking state definitions, tag names, propagation scopes, and archive settings.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(cmd.flags.ConfigPath)

	if cmd.format == "json" {
		return cmd.outputJSON(c, cfg, err)
	}

	out := c.Root().Writer
	if err != nil {
		_, _ = fmt.Fprintf(out, "invalid: %s\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	_, _ = fmt.Fprintf(out, "valid: %d state(s), %d tag(s)\n", len(cfg.States), len(cfg.Tags))
	return nil
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, cfg *config.Config, vErr error) error {
	out := struct {
		Valid  bool   `json:"valid"`
		Error  string `json:"error,omitempty"`
		States int    `json:"states,omitempty"`
		Tags   int    `json:"tags,omitempty"`
	}{
		Valid: vErr == nil,
	}
	if vErr != nil {
		out.Error = vErr.Error()
	} else {
		out.States = len(cfg.States)
		out.Tags = len(cfg.Tags)
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if vErr != nil {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}
