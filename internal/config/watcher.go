package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/capsela/capsela-util/internal/ini"
)

// DefaultDebounce is how long a Watcher waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 50 * time.Millisecond

// Watcher reloads a mode section whenever config.ini or local_config.ini in
// its directory changes. Editors often write a file in several steps, so
// events are debounced and each burst causes one reload.
type Watcher struct {
	loader   *Loader
	dir      string
	mode     string
	onChange func(ini.Section, error)
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWatcher creates a Watcher for section [mode] of dir. onChange receives
// the reloaded section, or the error that reloading it produced; it is
// called from the Watcher's goroutine. The directory itself is watched, so
// files that are created or replaced are picked up too.
func NewWatcher(loader *Loader, dir, mode string, onChange func(ini.Section, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		loader:   loader,
		dir:      dir,
		mode:     mode,
		onChange: onChange,
		debounce: DefaultDebounce,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The Watcher stops when ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.watchLoop(ctx)
}

// Stop stops the Watcher. It may be called more than once. Done is closed
// once the watch loop has exited.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

// Done is closed once the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	defer w.Stop()

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.loader.Forget(ev.Name)
			pending = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			sec, err := w.loader.Load(w.dir, w.mode)
			w.onChange(sec, err)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.loader.log().Warn("config watcher error", "dir", w.dir, "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch filepath.Base(ev.Name) {
	case FileName, LocalFileName:
		return true
	}
	return false
}
