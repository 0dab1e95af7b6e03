package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/tickdown/internal/core/config"
	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/docfile"
	"github.com/colonyops/tickdown/internal/core/meta"
	"github.com/colonyops/tickdown/internal/core/parse"
	"github.com/colonyops/tickdown/internal/core/pattern"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands.
	// ConfigErr holds the load error when the file was unreadable or
	// invalid; Config then falls back to the defaults.
	Config    *config.Config
	ConfigErr error
}

// Session bundles one open document with the engines built from the loaded
// configuration. Commands open one session per file they operate on.
type Session struct {
	Doc    *diff.Document
	Map    *parse.TodoMap
	States *pattern.StateSet
	Parser *parse.Parser
	Meta   *meta.Engine
}

// Open loads the document at path in live form and parses it.
func (f *Flags) Open(path string) (*Session, error) {
	if f.ConfigErr != nil {
		return nil, f.ConfigErr
	}

	states, err := f.Config.StateSet()
	if err != nil {
		return nil, fmt.Errorf("build state set: %w", err)
	}

	metaEng := meta.NewEngine(f.Config.TagDefs())
	parser := parse.NewParser(states, metaEng.Aliases())

	doc, err := docfile.Load(path, states)
	if err != nil {
		return nil, err
	}

	return &Session{
		Doc:    doc,
		Map:    parser.Parse(doc),
		States: states,
		Parser: parser,
		Meta:   metaEng,
	}, nil
}

// Reparse refreshes the todo map after hunks were applied.
func (s *Session) Reparse() {
	s.Map = s.Parser.Parse(s.Doc)
}

// Save writes the document back to disk in bracket form.
func (s *Session) Save() error {
	return docfile.Save(s.Doc, s.States)
}

// ItemAtLine resolves a 1-based line number to the item covering it.
func (s *Session) ItemAtLine(line int) (*parse.Item, error) {
	it, ok := s.Map.At(line - 1)
	if !ok {
		return nil, fmt.Errorf("no todo item at line %d", line)
	}
	return it, nil
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tickdown", "config.yaml")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/tickdown/tickdown.log
// On Linux: $XDG_STATE_HOME/tickdown/tickdown.log (defaults to ~/.local/state/tickdown/tickdown.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "tickdown", "tickdown.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "tickdown", "tickdown.log")
	}

	return filepath.Join(home, ".local", "state", "tickdown", "tickdown.log")
}
