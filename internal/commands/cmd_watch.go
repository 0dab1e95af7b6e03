package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tickdown/internal/core/archive"
	"github.com/colonyops/tickdown/internal/core/diff"
	"github.com/colonyops/tickdown/internal/core/docfile"
	"github.com/colonyops/tickdown/internal/core/logging"
	"github.com/colonyops/tickdown/internal/core/pattern"
	"github.com/colonyops/tickdown/pkg/kv"
)

// watchDebounce is how long events must settle before a file is reprocessed.
const watchDebounce = 200 * time.Millisecond

// selfWriteWindow suppresses events caused by our own saves.
const selfWriteWindow = 500 * time.Millisecond

// WatchCmd implements the watch command.
type WatchCmd struct {
	flags *Flags

	// flags
	autoArchive bool
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Watch documents and reprocess them on change",
		UsageText: "tickdown watch [--archive] <file>...",
		Description: `Watches the given documents and reparses each one when it changes on
disk, logging an item summary. With --archive, fully-checked items are
moved under the archive heading after every change.

Watches the containing directories rather than the files themselves, so
editors that replace files on save keep being tracked.

Examples:
  tickdown watch notes.md
  tickdown watch --archive notes.md inbox.md`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "archive",
				Usage:       "auto-archive fully-checked items on change",
				Destination: &cmd.autoArchive,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: tickdown watch <file>...")
	}

	log := logging.Component("watch")

	targets := map[string]bool{}
	dirs := map[string]bool{}
	for _, arg := range c.Args().Slice() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", arg, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	hooks := &docfile.SaveHooks{}
	hooks.Register(func(doc *diff.Document) {
		log.Info().Str("doc", doc.Path).Msg("document saved")
	})

	// Process everything once on startup so --archive catches up with
	// changes made while the watcher was not running.
	selfWrites := kv.New[string, time.Time]()
	for path := range targets {
		cmd.process(log, hooks, selfWrites, path)
	}

	log.Info().Int("files", len(targets)).Msg("watching for changes")

	var (
		pending  = map[string]bool{}
		debounce *time.Timer
		fire     <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[event.Name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if t, ok := selfWrites.Get(event.Name); ok && time.Since(t) < selfWriteWindow {
				continue
			}

			pending[event.Name] = true
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			for path := range pending {
				cmd.process(log, hooks, selfWrites, path)
			}
			pending = map[string]bool{}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (cmd *WatchCmd) process(log zerolog.Logger, hooks *docfile.SaveHooks, selfWrites *kv.Store[string, time.Time], path string) {
	s, err := cmd.flags.Open(path)
	if err != nil {
		log.Error().Err(err).Str("doc", path).Msg("reload failed")
		return
	}

	checked := 0
	for _, id := range s.Map.Order {
		if st, ok := s.States.ByName(s.Map.Items[id].State); ok && st.Class == pattern.ClassChecked {
			checked++
		}
	}
	log.Info().
		Str("doc", path).
		Int("items", len(s.Map.Order)).
		Int("checked", checked).
		Msg("document changed")

	if !cmd.autoArchive {
		return
	}

	arch := archive.New(s.States, s.Parser, cmd.flags.Config.ArchiveOptions())
	changed, err := arch.Run(s.Doc)
	if err != nil {
		log.Error().Err(err).Str("doc", path).Msg("archive failed")
		return
	}
	if !changed {
		return
	}

	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("doc", path).Msg("save failed")
		return
	}
	selfWrites.Set(path, time.Now())
	hooks.Fire(s.Doc)

	s.Reparse()
	log.Info().
		Str("doc", path).
		Int("items", len(s.Map.Order)).
		Msg("auto-archived checked items")
}
