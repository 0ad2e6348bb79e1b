// Package watcher reports changes to a fixed set of files.
//
// Parent directories are watched instead of the files themselves so that
// editors which save by writing a temporary file and renaming it over the
// original keep being observed.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultSettle is how long a burst of events is left to settle before the
// handler runs.
const DefaultSettle = 150 * time.Millisecond

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates the file was created.
	OpCreate EventOp = iota
	// OpModify indicates the file was written.
	OpModify
	// OpDelete indicates the file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent is a change to one watched file.
type FileEvent struct {
	// Path is the watched path as it was given to New.
	Path string
	Op   EventOp
}

// HandlerFunc handles a settled change. Calls for the same path never overlap.
type HandlerFunc func(ctx context.Context, event FileEvent)

// FileWatcher watches a set of files.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	settle  time.Duration

	// files maps absolute paths to the path given by the caller.
	files   map[string]string
	pending map[string]chan FileEvent
	errors  chan error

	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a watcher for paths. settle <= 0 uses DefaultSettle.
// The watcher must be started with Start before it emits events.
func New(paths []string, settle time.Duration) (*FileWatcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		settle:  settle,
		files:   make(map[string]string, len(paths)),
		pending: make(map[string]chan FileEvent, len(paths)),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		fw.files[abs] = p
		// One slot: a pending change absorbs every later one until it is handled.
		fw.pending[p] = make(chan FileEvent, 1)
	}
	return fw, nil
}

// Start begins watching the parent directory of every file.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}

	added := make(map[string]bool)
	for abs := range fw.files {
		dir := filepath.Dir(abs)
		if added[dir] {
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			for d := range added {
				_ = fw.watcher.Remove(d)
			}
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		added[dir] = true
	}

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.done)

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	fw.wg.Wait()
	close(fw.errors)

	return nil
}

// Errors returns the channel of watch errors. It is closed by Stop.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// Run calls handle for every settled change until ctx is cancelled.
// Each file gets its own goroutine, so handlers for one file run one at a
// time while different files may be handled concurrently.
func (fw *FileWatcher) Run(ctx context.Context, handle HandlerFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	for path, ch := range fw.pending {
		path, ch := path, ch
		g.Go(func() error {
			fw.serve(ctx, path, ch, handle)
			return nil
		})
	}
	return g.Wait()
}

func (fw *FileWatcher) serve(ctx context.Context, path string, ch <-chan FileEvent, handle HandlerFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			timer := time.NewTimer(fw.settle)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			// Fold anything that arrived while settling into this run.
			select {
			case later := <-ch:
				event = later
			default:
			}

			event.Path = path
			handle(ctx, event)
		}
	}
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fileEvent, ok := fw.convertEvent(event); ok {
				select {
				case fw.pending[fileEvent.Path] <- fileEvent:
				default:
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

// convertEvent maps an fsnotify event onto a watched file.
// Returns false for unrelated files and chmod-only events.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) (FileEvent, bool) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return FileEvent{}, false
	}
	path, ok := fw.files[abs]
	if !ok {
		return FileEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return FileEvent{}, false
	}

	return FileEvent{Path: path, Op: op}, true
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}
