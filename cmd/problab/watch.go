package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// configWatcher calls reload after the experiment file settles following a
// change. The parent directory is watched so editors that replace the file
// are seen.
type configWatcher struct {
	path    string
	clock   quartz.Clock
	logger  *log.Logger
	reload  func()
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *quartz.Timer
}

func newConfigWatcher(path string, clock quartz.Clock, logger *log.Logger, reload func()) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &configWatcher{
		path:    filepath.Clean(path),
		clock:   clock,
		logger:  logger.WithPrefix("watch").With("config", path),
		reload:  reload,
		watcher: watcher,
	}, nil
}

func (w *configWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("Change detected", "op", event.Op.String())
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watch error", "error", err)
		}
	}
}

func (w *configWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(reloadDebounce, w.reload, "watch", "reload")
}

func (w *configWatcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
