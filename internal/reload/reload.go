// Package reload keeps the served wizard definition in sync with its file.
// Sessions already running keep the definition they started with.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

const debounceInterval = 100 * time.Millisecond

// Holder holds the current definition.
type Holder struct {
	def atomic.Pointer[wizard.Definition]
}

// NewHolder creates a holder for def.
func NewHolder(def *wizard.Definition) *Holder {
	h := &Holder{}
	h.def.Store(def)
	return h
}

// Load returns the current definition.
func (h *Holder) Load() *wizard.Definition {
	return h.def.Load()
}

// Store replaces the current definition.
func (h *Holder) Store(def *wizard.Definition) {
	h.def.Store(def)
}

// Load reads a definition file and checks that it builds a wizard.
func Load(path string) (*wizard.Definition, error) {
	def, err := wizard.LoadDefinitionFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := def.New(nil); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Watcher reloads a definition file into a Holder when it changes. Files
// that fail to load are logged and the previous definition is kept.
type Watcher struct {
	path    string
	holder  *Holder
	logger  logging.Logger
	watcher *fsnotify.Watcher

	// OnReload, when set, is called after each successful reload.
	OnReload func(def *wizard.Definition)
}

// NewWatcher starts watching path. The parent directory is watched so
// editors that replace the file by rename are followed.
func NewWatcher(path string, holder *Holder, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		holder:  holder,
		logger:  logger.With(logging.String("definition", abs)),
		watcher: fw,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Editors write in bursts.
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
			} else {
				timer.Reset(debounceInterval)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("definition watcher error", logging.Err(err))
		}
	}
}

func (w *Watcher) reload() {
	def, err := Load(w.path)
	if err != nil {
		w.logger.Warn("definition reload failed, keeping previous", logging.Err(err))
		return
	}
	w.holder.Store(def)
	w.logger.Info("definition reloaded", logging.Int("steps", len(def.Steps)))
	if w.OnReload != nil {
		w.OnReload(def)
	}
}
