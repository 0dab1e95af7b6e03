package config

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/tickdown/internal/core/toggle"
)

var tagNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

var validScopes = map[string]bool{
	"":                         true, // defaults to none
	string(toggle.ScopeNone):   true,
	string(toggle.ScopeDirect): true,
	string(toggle.ScopeAll):    true,
}

// Validate checks the configuration for structural errors using criterio.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		c.validateStates(),
		c.validateTags(),
		c.validatePropagation(),
		c.validateArchive(),
	)
}

func (c *Config) validateStates() error {
	if len(c.States) == 0 {
		return criterio.NewFieldErrors("states", fmt.Errorf("at least one state is required"))
	}

	var errs criterio.FieldErrorsBuilder
	var (
		seenName   = make(map[string]bool)
		seenChar   = make(map[string]bool)
		seenMarker = make(map[string]bool)
		classes    = make(map[string]int)
	)

	for i, st := range c.States {
		field := fmt.Sprintf("states[%d]", i)

		if st.Name == "" {
			errs = errs.Append(field+".name", fmt.Errorf("name is required"))
		} else if seenName[st.Name] {
			errs = errs.Append(field+".name", fmt.Errorf("duplicate state name %q", st.Name))
		}
		seenName[st.Name] = true

		if len(st.Char) != 1 {
			errs = errs.Append(field+".char", fmt.Errorf("char must be exactly one character"))
		} else if seenChar[st.Char] {
			errs = errs.Append(field+".char", fmt.Errorf("duplicate state char %q", st.Char))
		}
		seenChar[st.Char] = true

		if utf8.RuneCountInString(st.Marker) != 1 {
			errs = errs.Append(field+".marker", fmt.Errorf("marker must be exactly one character"))
		} else if seenMarker[st.Marker] {
			errs = errs.Append(field+".marker", fmt.Errorf("duplicate state marker %q", st.Marker))
		}
		seenMarker[st.Marker] = true

		switch st.Class {
		case "unchecked", "checked", "custom":
			classes[st.Class]++
		default:
			errs = errs.Append(field+".class", fmt.Errorf("class must be unchecked, checked, or custom"))
		}
	}

	if classes["unchecked"] == 0 {
		errs = errs.Append("states", fmt.Errorf("a state with class unchecked is required"))
	}
	if classes["checked"] == 0 {
		errs = errs.Append("states", fmt.Errorf("a state with class checked is required"))
	}

	return errs.ToError()
}

func (c *Config) validateTags() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]string) // name or alias -> owning tag

	for name, tc := range c.Tags {
		field := "tags." + name

		if !tagNameRe.MatchString(name) {
			errs = errs.Append(field, fmt.Errorf("invalid tag name %q", name))
			continue
		}
		if owner, ok := seen[name]; ok && owner != name {
			errs = errs.Append(field, fmt.Errorf("tag %q conflicts with alias of %q", name, owner))
		}
		seen[name] = name

		for _, alias := range tc.Aliases {
			if !tagNameRe.MatchString(alias) {
				errs = errs.Append(field+".aliases", fmt.Errorf("invalid alias %q", alias))
				continue
			}
			if owner, ok := seen[alias]; ok && owner != name {
				errs = errs.Append(field+".aliases", fmt.Errorf("alias %q conflicts with %q", alias, owner))
			}
			seen[alias] = name
		}
	}

	return errs.ToError()
}

func (c *Config) validatePropagation() error {
	var errs criterio.FieldErrorsBuilder

	check := func(field, value string) {
		if !validScopes[value] {
			errs = errs.Append("propagation."+field,
				fmt.Errorf("must be one of none, direct_children, all_children"))
		}
	}
	check("check_down", c.Propagation.CheckDown)
	check("uncheck_down", c.Propagation.UncheckDown)
	check("check_up", c.Propagation.CheckUp)
	check("uncheck_up", c.Propagation.UncheckUp)

	return errs.ToError()
}

func (c *Config) validateArchive() error {
	var errs criterio.FieldErrorsBuilder

	if c.Archive.Heading == "" {
		errs = errs.Append("archive.heading", fmt.Errorf("heading is required"))
	}
	if c.Archive.HeadingLevel < 1 || c.Archive.HeadingLevel > 6 {
		errs = errs.Append("archive.heading_level", fmt.Errorf("must be between 1 and 6"))
	}
	if c.Archive.Spacing < 0 {
		errs = errs.Append("archive.spacing", fmt.Errorf("must not be negative"))
	}

	return errs.ToError()
}
