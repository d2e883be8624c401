package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetPage = `<!DOCTYPE html>
<html>
<head><title>Widget Docs</title><style>body{}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
<h1>Widget</h1>
<p>Widget turns spreadsheets into dashboards.</p>
<ul><li>Fast</li><li>Cheap</li></ul>
</main>
<footer>copyright</footer>
</body>
</html>`

func TestConverter_Convert(t *testing.T) {
	u, _ := url.Parse("https://widget.example.com/")
	page, err := NewConverter().Convert([]byte(widgetPage), u)
	require.NoError(t, err)

	assert.NotEmpty(t, page.Title)
	assert.Contains(t, page.Markdown, "spreadsheets into dashboards")
	assert.NotContains(t, page.Markdown, "<style")
}

func TestExtractMainContent_Fallbacks(t *testing.T) {
	got := extractMainContent([]byte(`<html><body><nav>menu</nav><p>body text</p><script>x()</script></body></html>`))
	assert.Contains(t, got, "body text")
	assert.NotContains(t, got, "menu")
	assert.NotContains(t, got, "x()")

	got = extractMainContent([]byte(`<html><body><div role="main">landmark</div><p>other</p></body></html>`))
	assert.Contains(t, got, "landmark")
	assert.NotContains(t, got, "other")
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "a\n\n\nb", cleanMarkdown("  \na   \n\n\n\n\n\nb\t\n"))
}

func TestWebFetcher_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(widgetPage))
	}))
	defer srv.Close()

	f := NewWebFetcher(5*time.Second, WithAllowPrivate(true))
	doc, err := f.Fetch(context.Background(), srv.URL+"/docs")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Name)
	assert.Contains(t, doc.Content, "spreadsheets into dashboards")
	assert.Equal(t, srv.URL+"/docs", doc.Origin)
}

func TestWebFetcher_Markdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Gadget\n\nGadget does things."))
	}))
	defer srv.Close()

	f := NewWebFetcher(5*time.Second, WithAllowPrivate(true))
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", doc.Name)
	assert.Equal(t, "# Gadget\n\nGadget does things.", doc.Content)
}

func TestWebFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big":
			_, _ = w.Write(make([]byte, 2048))
		case "/empty":
			w.Header().Set("Content-Type", "text/plain")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewWebFetcher(5*time.Second, WithAllowPrivate(true), WithMaxPageSize(1024))
	for _, path := range []string{"/missing", "/big", "/empty"} {
		_, err := f.Fetch(context.Background(), srv.URL+path)
		assert.ErrorIs(t, err, ErrNotFound, path)
	}
}

func TestWebFetcher_RejectsPrivateHosts(t *testing.T) {
	f := NewWebFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/readme")
	assert.ErrorIs(t, err, ErrNotFound)
}
