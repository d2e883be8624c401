package source

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memProject(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLocalFetcher_Directory(t *testing.T) {
	fs := memProject(t, map[string]string{
		"/work/widget/README.md":      "# Widget",
		"/work/widget/docs/README.md": "# Widget docs",
		"/work/widget/main.go":        "package main",
	})
	f := NewLocalFetcher(fs)

	doc, err := f.Fetch(context.Background(), "/work/widget")
	require.NoError(t, err)
	assert.Equal(t, "widget", doc.Name)
	assert.Equal(t, "# Widget", doc.Content)
	assert.Equal(t, "/work/widget/README.md", doc.Origin)
}

func TestLocalFetcher_PatternPriority(t *testing.T) {
	fs := memProject(t, map[string]string{
		"/p/readme.txt":     "lower",
		"/p/README.rst":     "upper rst",
		"/p/docs/README.md": "nested",
	})
	f := NewLocalFetcher(fs)

	doc, err := f.Fetch(context.Background(), "/p")
	require.NoError(t, err)
	assert.Equal(t, "upper rst", doc.Content)

	f = NewLocalFetcher(fs, WithPatterns("docs/**/*.md"))
	doc, err = f.Fetch(context.Background(), "/p")
	require.NoError(t, err)
	assert.Equal(t, "nested", doc.Content)
}

func TestLocalFetcher_File(t *testing.T) {
	fs := memProject(t, map[string]string{"/p/NOTES.md": "notes"})
	doc, err := NewLocalFetcher(fs).Fetch(context.Background(), "/p/NOTES.md")
	require.NoError(t, err)
	assert.Equal(t, "p", doc.Name)
	assert.Equal(t, "notes", doc.Content)
}

func TestLocalFetcher_NotFound(t *testing.T) {
	fs := memProject(t, map[string]string{"/p/main.go": "package main"})
	f := NewLocalFetcher(fs)

	_, err := f.Fetch(context.Background(), "/p")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFetcher_Match(t *testing.T) {
	f := NewLocalFetcher(afero.NewMemMapFs())
	assert.True(t, f.Match("README.md"))
	assert.True(t, f.Match("docs/README.md"))
	assert.False(t, f.Match("main.go"))
}
