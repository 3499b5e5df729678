package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk and hands
// every successfully loaded configuration to a callback. Reload failures
// are logged and the previous configuration stays in effect.
type Watcher struct {
	path     string
	onChange func(*Config)

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// debounceWindow coalesces the burst of filesystem events editors emit for
// a single save into one reload.
const debounceWindow = 200 * time.Millisecond

// WatchConfig starts watching the configuration file at path. The parent
// directory is watched rather than the file itself, because editors
// typically replace the file via rename and a file-level watch dies with
// the old inode. onChange is invoked from the watcher goroutine with each
// newly loaded configuration.
//
// The caller must Close the watcher to release the inotify handle.
func WatchConfig(path string, onChange func(*Config)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("cannot watch configuration: no file path")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go w.run()

	slog.Info("watching configuration file", "path", path)
	return w, nil
}

// run is the watcher event loop.
func (w *Watcher) run() {
	defer close(w.stopped)

	target := filepath.Clean(w.path)
	var pending *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("configuration watcher error", "error", err)
		}
	}
}

// reload loads the configuration file and publishes the result.
func (w *Watcher) reload() {
	cfg, err := LoadConfigWithEnvOverrides(w.path)
	if err != nil {
		slog.Warn("configuration reload failed, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}

	SetConfig(cfg)
	if w.onChange != nil {
		w.onChange(cfg)
	}
	slog.Info("configuration reloaded", "path", w.path)
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}
