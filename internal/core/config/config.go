// Package config handles configuration loading and validation for tickdown.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/tickdown/internal/core/archive"
	"github.com/colonyops/tickdown/internal/core/meta"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/internal/core/toggle"
)

// Config holds the document model configuration: the completion-state set,
// tag definitions, the propagation policy, and archive placement.
type Config struct {
	States      []StateConfig        `yaml:"states"`
	Tags        map[string]TagConfig `yaml:"tags"`
	Propagation PropagationConfig    `yaml:"propagation"`
	Archive     ArchiveConfig        `yaml:"archive"`
}

// StateConfig declares one completion state.
type StateConfig struct {
	Name   string `yaml:"name"`
	Char   string `yaml:"char"`   // single character used inside brackets on disk
	Marker string `yaml:"marker"` // symbolic glyph used in the live form
	Class  string `yaml:"class"`  // unchecked, checked, or custom
	Order  int    `yaml:"order"`
}

// TagConfig declares one metadata tag.
type TagConfig struct {
	SortOrder int      `yaml:"sort_order"`
	Aliases   []string `yaml:"aliases"`
	Choices   []string `yaml:"choices"` // static choice list; empty means free-form
}

// PropagationConfig declares the smart-toggle policy.
type PropagationConfig struct {
	Enabled     *bool  `yaml:"enabled"` // nil means enabled
	CheckDown   string `yaml:"check_down"`
	UncheckDown string `yaml:"uncheck_down"`
	CheckUp     string `yaml:"check_up"`
	UncheckUp   string `yaml:"uncheck_up"`
}

// ArchiveConfig declares where checked items are filed.
type ArchiveConfig struct {
	Heading      string `yaml:"heading"`
	HeadingLevel int    `yaml:"heading_level"`
	Spacing      int    `yaml:"spacing"`
	NewestFirst  bool   `yaml:"newest_first"`
}

// DefaultConfig returns the built-in configuration: the two canonical
// states, direct-children propagation, and an "## Archive" heading.
func DefaultConfig() Config {
	return Config{
		States: []StateConfig{
			{Name: "unchecked", Char: " ", Marker: "□", Class: "unchecked", Order: 1},
			{Name: "checked", Char: "x", Marker: "✔", Class: "checked", Order: 2},
		},
		Tags: map[string]TagConfig{},
		Propagation: PropagationConfig{
			CheckDown:   string(toggle.ScopeDirect),
			UncheckDown: string(toggle.ScopeNone),
			CheckUp:     string(toggle.ScopeDirect),
			UncheckUp:   string(toggle.ScopeDirect),
		},
		Archive: ArchiveConfig{
			Heading:      "Archive",
			HeadingLevel: 2,
		},
	}
}

// Load reads the config file at configPath, layered over the defaults. A
// missing file is not an error: callers get the defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// StateSet builds the pattern state set from the configured states.
func (c *Config) StateSet() (*pattern.StateSet, error) {
	states := make([]pattern.State, 0, len(c.States))
	for _, sc := range c.States {
		states = append(states, pattern.State{
			Name:   sc.Name,
			Char:   sc.Char[0],
			Marker: sc.Marker,
			Class:  pattern.Class(sc.Class),
			Order:  sc.Order,
		})
	}
	return pattern.NewStateSet(states)
}

// TagDefs builds the metadata tag definitions from the configured tags.
// Static choice lists from the config become StaticChoices sources;
// programmatic sources attach through the meta API directly.
func (c *Config) TagDefs() []meta.TagDef {
	defs := make([]meta.TagDef, 0, len(c.Tags))
	for name, tc := range c.Tags {
		def := meta.TagDef{
			Name:      name,
			SortOrder: tc.SortOrder,
			Aliases:   tc.Aliases,
		}
		if len(tc.Choices) > 0 {
			def.Choices = meta.StaticChoices(tc.Choices)
		}
		defs = append(defs, def)
	}
	return defs
}

// Policy builds the propagation policy.
func (c *Config) Policy() toggle.Policy {
	scope := func(s string) toggle.Scope {
		if s == "" {
			return toggle.ScopeNone
		}
		return toggle.Scope(s)
	}
	return toggle.Policy{
		Enabled:     c.Propagation.Enabled == nil || *c.Propagation.Enabled,
		CheckDown:   scope(c.Propagation.CheckDown),
		UncheckDown: scope(c.Propagation.UncheckDown),
		CheckUp:     scope(c.Propagation.CheckUp),
		UncheckUp:   scope(c.Propagation.UncheckUp),
	}
}

// ArchiveOptions builds the archive placement options.
func (c *Config) ArchiveOptions() archive.Options {
	return archive.Options{
		Heading:      c.Archive.Heading,
		HeadingLevel: c.Archive.HeadingLevel,
		Spacing:      c.Archive.Spacing,
		NewestFirst:  c.Archive.NewestFirst,
	}
}
