// Package watcher monitors the definition table file and reports when a
// changed copy has been stable long enough to recompile.
package watcher

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports a stable definition file ready for recompilation.
type Event struct {
	Path      string
	Hash      [32]byte
	Size      int64
	Timestamp time.Time
}

// Watcher watches a single definition file. Editors routinely rename a
// temp file over the target, so the parent directory is watched and
// events are filtered to the file itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration

	mu       sync.Mutex
	dirtyAt  time.Time
	dirty    bool
	lastHash [32]byte

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for a single definition file. The debounce
// interval is how long the file must be untouched before an event is
// emitted.
func New(path string, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  debounce,
		events:    make(chan Event, 4),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of reload events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Path returns the watched definition file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching.
func (w *Watcher) Start() error {
	if hash, _, err := HashFile(w.path); err == nil {
		w.lastHash = hash
	}

	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.fsWatcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.mu.Lock()
			w.dirty = true
			w.dirtyAt = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	// Poll at a fraction of the debounce interval.
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.checkStable(now)
		}
	}
}

func (w *Watcher) checkStable(now time.Time) {
	w.mu.Lock()
	if !w.dirty || now.Sub(w.dirtyAt) < w.debounce {
		w.mu.Unlock()
		return
	}
	dirtyAt := w.dirtyAt
	w.mu.Unlock()

	// Hash outside the lock; editors may still be writing.
	hash, size, err := HashFile(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirtyAt != dirtyAt {
		// Touched again during hashing. Let it stabilize again.
		return
	}
	w.dirty = false

	if err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}
	if hash == w.lastHash {
		// Touched but unchanged, e.g. an editor save with no edits.
		return
	}
	w.lastHash = hash

	select {
	case w.events <- Event{Path: w.path, Hash: hash, Size: size, Timestamp: now}:
	default:
	}
}

// HashFile computes the SHA-256 hash of a file using streaming.
func HashFile(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}
