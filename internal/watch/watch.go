// Package watch re-runs a callback when a file changes.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is given.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes. Bursts of writes within the debounce
// period trigger one callback.
type Watcher struct {
	file     string
	debounce time.Duration
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for file. The containing directory is
// watched so editors that replace the file on save are still seen.
func NewWatcher(file string, debounce time.Duration, callback func() error) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		debounce: debounce,
		callback: callback,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the callback once, then again after every change.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go func() {
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		var fire <-chan time.Time

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if path, err := filepath.Abs(event.Name); err == nil && path == w.file {
					timer.Reset(w.debounce)
					fire = timer.C
				}

			case <-fire:
				if err := w.callback(); err != nil {
					log.Printf("watch: callback error: %v", err)
				}
				fire = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch: %v", err)

			case <-w.done:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop stops watching the file.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
