package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultDocPatterns locate documentation in a project directory, in
// priority order.
var DefaultDocPatterns = []string{"README.md", "README*", "readme*", "docs/README.md"}

// LocalFetcher reads documentation from a directory or file on disk.
type LocalFetcher struct {
	fs       afero.Fs
	patterns []string
	logger   *slog.Logger
}

// LocalOption configures a LocalFetcher.
type LocalOption func(*LocalFetcher)

// WithPatterns overrides the discovery patterns.
func WithPatterns(patterns ...string) LocalOption {
	return func(f *LocalFetcher) {
		if len(patterns) > 0 {
			f.patterns = patterns
		}
	}
}

// WithLocalLogger sets the logger.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(f *LocalFetcher) {
		f.logger = logger
	}
}

// NewLocalFetcher creates a fetcher over fsys. A nil fsys means the OS
// filesystem.
func NewLocalFetcher(fsys afero.Fs, opts ...LocalOption) *LocalFetcher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	f := &LocalFetcher{
		fs:       fsys,
		patterns: DefaultDocPatterns,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Patterns returns the discovery patterns.
func (f *LocalFetcher) Patterns() []string {
	return f.patterns
}

// Fetch reads path directly if it is a file. For a directory, the first
// pattern with a match wins and its lexically first match is read.
func (f *LocalFetcher) Fetch(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := f.fs.Stat(path)
	if err != nil {
		f.logger.Debug("Local path not readable", "path", path, "error", err)
		return nil, ErrNotFound
	}

	file := path
	dir := path
	if info.IsDir() {
		rel, err := f.Discover(path)
		if err != nil {
			return nil, err
		}
		file = filepath.Join(path, filepath.FromSlash(rel))
	} else {
		dir = filepath.Dir(path)
	}

	data, err := afero.ReadFile(f.fs, file)
	if err != nil {
		f.logger.Warn("Read documentation failed", "file", file, "error", err)
		return nil, ErrNotFound
	}

	name := filepath.Base(dir)
	if abs, err := filepath.Abs(dir); err == nil && (name == "." || name == string(filepath.Separator)) {
		name = filepath.Base(abs)
	}
	return &Document{Name: name, Content: string(data), Origin: file}, nil
}

// Discover returns the slash-separated path, relative to dir, of the
// documentation file the patterns select.
func (f *LocalFetcher) Discover(dir string) (string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(f.fs, dir))
	for _, pattern := range f.patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if st, err := fs.Stat(fsys, m); err == nil && !st.IsDir() {
				return m, nil
			}
		}
	}
	return "", ErrNotFound
}

// Match reports whether rel, a path relative to the project directory,
// is selected by any discovery pattern.
func (f *LocalFetcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range f.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
