package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DefaultDebounce is how long the watcher waits for more changes before
// reporting.
const DefaultDebounce = 500 * time.Millisecond

// changeBuffer is the size of the change channel.
const changeBuffer = 16

// DocWatcher watches a project directory and reports documentation files,
// as selected by a LocalFetcher's patterns, whose content changed.
type DocWatcher struct {
	dir      string
	fetcher  *LocalFetcher
	debounce time.Duration
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	hashes  map[string]string
	changes chan string
}

// WatchOption configures a DocWatcher.
type WatchOption func(*DocWatcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *DocWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *DocWatcher) {
		w.logger = logger
	}
}

// NewDocWatcher creates a watcher for dir.
func NewDocWatcher(dir string, fetcher *LocalFetcher, opts ...WatchOption) *DocWatcher {
	w := &DocWatcher{
		dir:      dir,
		fetcher:  fetcher,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]struct{}),
		hashes:   make(map[string]string),
		changes:  make(chan string, changeBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Changes returns the channel of changed documentation paths, relative to
// the project directory. It is closed when Run returns.
func (w *DocWatcher) Changes() <-chan string {
	return w.changes
}

// Run watches until ctx ends. The current content of existing
// documentation files is recorded first, so only later edits are reported.
func (w *DocWatcher) Run(ctx context.Context) error {
	defer close(w.changes)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	// Nested patterns like docs/README.md need their directory watched too.
	for _, sub := range w.subdirs() {
		if err := fsw.Add(sub); err != nil {
			w.logger.Warn("Failed to watch directory", "path", sub, "error", err)
		}
	}
	w.seed()

	w.logger.Info("Documentation watcher started", "dir", w.dir, "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handleFSEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// subdirs returns the existing directories named by nested patterns.
func (w *DocWatcher) subdirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range w.fetcher.Patterns() {
		sub := filepath.Dir(filepath.FromSlash(pattern))
		if sub == "." || seen[sub] {
			continue
		}
		seen[sub] = true
		path := filepath.Join(w.dir, sub)
		if ok, _ := afero.DirExists(w.fetcher.fs, path); ok {
			dirs = append(dirs, path)
		}
	}
	return dirs
}

// seed records hashes of the documentation files present at start.
func (w *DocWatcher) seed() {
	rel, err := w.fetcher.Discover(w.dir)
	if err != nil {
		return
	}
	if hash, err := w.hash(rel); err == nil {
		w.hashes[rel] = hash
	}
}

func (w *DocWatcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil || !w.fetcher.Match(rel) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Documentation change detected", "path", rel, "op", event.Op.String())
}

// flushPending reports accumulated changes whose content differs from the
// last seen version.
func (w *DocWatcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for rel := range toProcess {
		hash, err := w.hash(rel)
		if err != nil {
			// removed or renamed away
			delete(w.hashes, rel)
			continue
		}
		if w.hashes[rel] == hash {
			continue
		}
		w.hashes[rel] = hash

		select {
		case w.changes <- rel:
		case <-ctx.Done():
			return
		default:
			w.logger.Warn("Change channel full, dropping event", "path", rel)
		}
	}
}

func (w *DocWatcher) hash(rel string) (string, error) {
	data, err := afero.ReadFile(w.fetcher.fs, filepath.Join(w.dir, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
