package theme

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long writes must settle before a reload.
const DefaultDebounce = 200 * time.Millisecond

// ChangedMsg is sent to the program after the theme file changes.
type ChangedMsg struct {
	Theme Theme
}

// Watcher reloads a theme file whenever it changes and hands the result
// to a callback. Editors often replace files instead of writing them, so
// the parent directory is watched rather than the file itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	callback  func(Theme)
	log       zerolog.Logger

	stop    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// NewWatcher creates a Watcher for path. Pass 0 for debounce to use
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, callback func(Theme), logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		callback: callback,
		log:      logger.With().Str("component", "theme").Logger(),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins watching. The directory must exist. It is safe to call only once.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsWatcher = fsw

	go w.eventLoop()
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running || w.fsWatcher == nil {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	w.fsWatcher.Close()
	<-w.stopped

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Theme watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()
		w.reload()
	})
}

func (w *Watcher) reload() {
	// a rename away leaves nothing to read; wait for the next create
	if _, err := os.Stat(w.path); err != nil {
		return
	}

	t, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("Keeping previous theme")
		return
	}

	w.log.Info().Str("path", w.path).Msg("Theme reloaded")
	if w.callback != nil {
		w.callback(t)
	}
}
