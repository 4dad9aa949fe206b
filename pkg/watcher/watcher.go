package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/expandable/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no files to watch")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period before a batch is delivered.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback receiving the files changed in one batch.
func WithOnChange(fn func(paths []string)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll disables fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

type fileStat struct {
	mtime time.Time
	size  int64
}

// Watcher monitors item files with fsnotify, falling back to polling when
// fsnotify is unavailable or EXPANDABLE_FORCE_POLL is set.
type Watcher struct {
	paths        []string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func(paths []string)
	onError      func(error)
	forcePoll    bool

	mu        sync.RWMutex
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	stats     map[string]fileStat
	started   bool
	cancel    context.CancelFunc
	changeCh  chan []string
}

// New returns a watcher for paths.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	w := &Watcher{
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func([]string) {},
		onError:      func(error) {},
		stats:        make(map[string]fileStat),
		changeCh:     make(chan []string, 1),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.paths = append(w.paths, abs)
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. It returns once the watch goroutine is running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}
	ctx, w.cancel = context.WithCancel(ctx)

	for _, p := range w.paths {
		w.stats[p] = statFile(p)
	}

	w.polling = w.forcePoll || envBool("EXPANDABLE_FORCE_POLL")
	if !w.polling {
		fsw, err := w.watchDirs()
		if err != nil {
			debug.Log("watcher: fsnotify unavailable, polling: %v", err)
			w.polling = true
		} else {
			w.fsw = fsw
			go w.runFsnotify(ctx, fsw)
		}
	}
	if w.polling {
		go w.runPolling(ctx)
	}
	w.started = true
	return nil
}

// watchDirs watches the parent directory of every file so atomic renames
// are seen.
func (w *Watcher) watchDirs() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fsw, nil
}

// Stop stops watching and drops any pending batch. The Changed channel is
// left open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed delivers each batch of changed files. Batches are dropped while
// the previous one is unread.
func (w *Watcher) Changed() <-chan []string {
	return w.changeCh
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

func (w *Watcher) watched(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	for _, p := range w.paths {
		if p == abs {
			return p, true
		}
	}
	return "", false
}

func (w *Watcher) runFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			path, ok := w.watched(ev.Name)
			if !ok {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.onError(fmt.Errorf("%s: %w", path, ErrFileRemoved))
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(path, w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	for _, p := range w.paths {
		cur := statFile(p)
		w.mu.Lock()
		prev := w.stats[p]
		w.stats[p] = cur
		w.mu.Unlock()
		switch {
		case cur.mtime.IsZero() && !prev.mtime.IsZero():
			w.onError(fmt.Errorf("%s: %w", p, ErrFileRemoved))
		case cur != prev:
			w.debouncer.Trigger(p, w.notify)
		}
	}
}

func (w *Watcher) notify(paths []string) {
	if !w.IsStarted() {
		return
	}
	debug.Log("watcher: %d file(s) changed: %s", len(paths), strings.Join(paths, ", "))
	w.onChange(paths)
	select {
	case w.changeCh <- paths:
	default:
	}
}

func statFile(path string) fileStat {
	info, err := os.Stat(path)
	if err != nil {
		return fileStat{}
	}
	return fileStat{mtime: info.ModTime(), size: info.Size()}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
