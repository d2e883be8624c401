package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultRawBaseURL serves raw file contents for public GitHub repos.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	// defaultMaxReadmeSize bounds a README download.
	defaultMaxReadmeSize = 5 * 1024 * 1024
)

// DefaultBranches are tried in order when resolving the README location.
var DefaultBranches = []string{"main", "master"}

// IsGitHubURL reports whether ref points at github.com.
func IsGitHubURL(ref string) bool {
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "https://"), "http://")
	ref = strings.TrimPrefix(ref, "www.")
	return strings.HasPrefix(ref, "github.com/")
}

// ParseRepoURL extracts owner and repository from a repository URL such as
// https://github.com/acme/widget or https://github.com/acme/widget/.
// The last two path segments are used, so deeper URLs resolve to their tail.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	clean := strings.TrimSuffix(strings.TrimSpace(repoURL), "/")
	parts := strings.Split(clean, "/")
	if len(parts) < 4 {
		return "", "", fmt.Errorf("not a repository URL: %q", repoURL)
	}
	owner, repo = parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("not a repository URL: %q", repoURL)
	}
	return owner, repo, nil
}

// GitHubFetcher reads README.md from a public GitHub repository through the
// raw content host.
type GitHubFetcher struct {
	client   *http.Client
	baseURL  string
	branches []string
	maxSize  int64
	logger   *slog.Logger
}

// GitHubOption configures a GitHubFetcher.
type GitHubOption func(*GitHubFetcher)

// WithRawBaseURL overrides the raw content host.
func WithRawBaseURL(url string) GitHubOption {
	return func(f *GitHubFetcher) {
		f.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithBranches overrides the branch candidates.
func WithBranches(branches ...string) GitHubOption {
	return func(f *GitHubFetcher) {
		f.branches = branches
	}
}

// WithGitHubHTTPClient sets the HTTP client.
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(f *GitHubFetcher) {
		f.client = c
	}
}

// WithGitHubLogger sets the logger.
func WithGitHubLogger(logger *slog.Logger) GitHubOption {
	return func(f *GitHubFetcher) {
		f.logger = logger
	}
}

// NewGitHubFetcher creates a fetcher for GitHub repositories.
func NewGitHubFetcher(opts ...GitHubOption) *GitHubFetcher {
	f := &GitHubFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  DefaultRawBaseURL,
		branches: DefaultBranches,
		maxSize:  defaultMaxReadmeSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RawURL is the README location for a repository on a branch.
func (f *GitHubFetcher) RawURL(owner, repo, branch string) string {
	return fmt.Sprintf("%s/%s/%s/%s/README.md", f.baseURL, owner, repo, branch)
}

// Fetch tries each branch in order; the first successful response wins.
// Any failure on every branch yields ErrNotFound.
func (f *GitHubFetcher) Fetch(ctx context.Context, repoURL string) (*Document, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		f.logger.Debug("Unparseable repository URL", "url", repoURL, "error", err)
		return nil, ErrNotFound
	}

	for _, branch := range f.branches {
		rawURL := f.RawURL(owner, repo, branch)
		content, err := f.get(ctx, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("README fetch failed", "branch", branch, "url", rawURL, "error", err)
			continue
		}
		f.logger.Debug("README fetched", "repo", owner+"/"+repo, "branch", branch, "bytes", len(content))
		return &Document{Name: repo, Content: content, Origin: rawURL}, nil
	}

	return nil, ErrNotFound
}

func (f *GitHubFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
