package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c360studio/repodeck/source/weburl"
)

const defaultMaxPageSize = 10 * 1024 * 1024

// WebFetcher fetches an arbitrary documentation page and converts it to
// markdown. Only public https hosts are reachable unless private hosts are
// explicitly allowed.
type WebFetcher struct {
	client       *http.Client
	converter    *Converter
	userAgent    string
	maxSize      int64
	allowPrivate bool
	logger       *slog.Logger
}

// WebOption configures a WebFetcher.
type WebOption func(*WebFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) WebOption {
	return func(f *WebFetcher) {
		f.userAgent = ua
	}
}

// WithMaxPageSize bounds the downloaded page.
func WithMaxPageSize(n int64) WebOption {
	return func(f *WebFetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithAllowPrivate disables URL validation and the private-IP dialer.
// Intended for local development and tests.
func WithAllowPrivate(allow bool) WebOption {
	return func(f *WebFetcher) {
		f.allowPrivate = allow
	}
}

// WithWebLogger sets the logger.
func WithWebLogger(logger *slog.Logger) WebOption {
	return func(f *WebFetcher) {
		f.logger = logger
	}
}

// NewWebFetcher creates a web fetcher with the given request timeout.
func NewWebFetcher(timeout time.Duration, opts ...WebOption) *WebFetcher {
	f := &WebFetcher{
		converter: NewConverter(),
		userAgent: "repodeck/1.0",
		maxSize:   defaultMaxPageSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.allowPrivate {
		f.client = &http.Client{Timeout: timeout}
	} else {
		f.client = &http.Client{
			Transport: &http.Transport{
				DialContext:           safeDialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
			},
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				if err := weburl.ValidateURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		}
	}
	return f
}

var dialer = &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

// safeDialContext refuses hosts that resolve to private addresses.
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("DNS lookup failed: %w", err)
	}
	for _, ip := range ips {
		if weburl.IsPrivateIP(ip.IP) {
			return nil, fmt.Errorf("connection to private IP %s is not allowed", ip.IP)
		}
	}
	for _, ip := range ips {
		if conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.IP.String(), port)); err == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("failed to connect to any resolved IP")
}

// Fetch downloads pageURL. HTML is converted to markdown; text and markdown
// bodies are returned as is. Any failure is reported as ErrNotFound.
func (f *WebFetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	if !f.allowPrivate {
		if err := weburl.ValidateURL(pageURL); err != nil {
			f.logger.Warn("Rejected page URL", "url", pageURL, "error", err)
			return nil, ErrNotFound
		}
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, ErrNotFound
	}

	body, contentType, err := f.get(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("Page fetch failed", "url", pageURL, "error", err)
		return nil, ErrNotFound
	}

	doc := &Document{Origin: pageURL, Content: string(body)}
	if strings.Contains(contentType, "html") {
		page, err := f.converter.Convert(body, parsed)
		if err != nil {
			f.logger.Warn("HTML conversion failed", "url", pageURL, "error", err)
			return nil, ErrNotFound
		}
		doc.Name, doc.Content = page.Title, page.Markdown
	}
	if doc.Name == "" {
		doc.Name = extractMarkdownTitle(doc.Content)
	}
	if doc.Name == "" {
		doc.Name = weburl.Slug(pageURL)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (f *WebFetcher) get(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/markdown,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, "", fmt.Errorf("content too large (exceeds %d bytes)", f.maxSize)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
