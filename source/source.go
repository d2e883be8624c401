// Package source resolves a repository reference to its documentation text.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound means no documentation could be found for a reference. It is
// user-correctable and distinct from generation failures.
var ErrNotFound = errors.New("documentation not found")

// NotFoundMessage is the user-facing text for ErrNotFound.
const NotFoundMessage = "Couldn't find a README at that URL. Ensure the repository is public and the URL is correct."

// Document is fetched documentation.
type Document struct {
	// Name is the repository or project name.
	Name string
	// Content is markdown or plain text of unbounded length.
	Content string
	// Origin is where the content was read from.
	Origin string
}

// Fetcher resolves a reference to documentation.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*Document, error)
}

// Router dispatches references to the fetcher that understands them:
// GitHub repository URLs, other web pages, or local paths.
type Router struct {
	GitHub Fetcher
	Web    Fetcher
	Local  Fetcher
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, ref string) (*Document, error) {
	f := r.route(strings.TrimSpace(ref))
	if f == nil {
		return nil, ErrNotFound
	}
	return f.Fetch(ctx, strings.TrimSpace(ref))
}

func (r *Router) route(ref string) Fetcher {
	switch {
	case ref == "":
		return nil
	case IsGitHubURL(ref):
		return r.GitHub
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.Web
	default:
		return r.Local
	}
}
