// Package watch reports changes to a set of files, debounced so an editor
// save that produces several filesystem events triggers one callback.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher invokes a callback when any watched file is written, created or
// replaced. Parent directories are watched so atomic-rename saves are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	onChange func(path string)
	onError  func(error)

	mu      sync.Mutex
	stopped bool
}

// New creates a Watcher for files. onChange runs on the watcher goroutine
// once per changed file per debounce window.
func New(files []string, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool, len(files)),
		debounce: DefaultDebounce,
		onChange: onChange,
	}

	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// SetDebounce overrides DefaultDebounce. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// SetErrorCallback sets the callback for watcher errors.
func (w *Watcher) SetErrorCallback(cb func(error)) {
	w.onError = cb
}

// Run processes filesystem events until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	// Debounce events - many editors create multiple events for a single save
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			pending[name] = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			for name := range pending {
				w.onChange(name)
			}
			pending = make(map[string]bool)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	return w.watcher.Close()
}
