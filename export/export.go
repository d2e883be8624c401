// Package export renders decks to downloadable documents.
//
// PPTX export fills image gaps before assembly: each slide without a cached
// image gets one generation attempt through the session's image cache, so
// anything generated during export is cached exactly like on-screen
// requests. Slides whose image is still absent get a placeholder that
// shows the slide's visual prompt.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/export/pptx"
	"github.com/c360studio/repodeck/metrics"
)

// ErrExport is returned when a document cannot be assembled. The deck and
// image cache are left untouched.
var ErrExport = errors.New("export failed")

// UserMessage is the user-facing text for ErrExport.
const UserMessage = "Sorry, failed to generate the PPTX. Please try again."

// ImageSource yields a slide's image, generating it at most once per slide.
// presentation.Presentation satisfies it.
type ImageSource interface {
	AwaitImage(ctx context.Context, slideID, visualPrompt string) (deck.Image, bool)
}

// Exporter renders decks.
type Exporter struct {
	concurrency int
	metrics     *metrics.Provider
	logger      *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithConcurrency bounds how many slide images are filled at once.
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *metrics.Provider) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New creates an exporter. Images are filled one slide at a time unless
// WithConcurrency says otherwise.
func New(opts ...Option) *Exporter {
	e := &Exporter{concurrency: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FileName derives the download name, e.g. "Acme_Widget_Pitch_Deck.pptx".
func FileName(projectName string, format Format) string {
	name := whitespaceRe.ReplaceAllString(strings.TrimSpace(projectName), "_")
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" {
		name = "Untitled"
	}
	ext := ".pptx"
	if info, ok := GetFormatInfo(format); ok {
		ext = info.Extension
	}
	return name + "_Pitch_Deck" + ext
}

// Export writes d as a PPTX document to w.
func (e *Exporter) Export(ctx context.Context, d *deck.Deck, images ImageSource, w io.Writer) error {
	return e.ExportAs(ctx, FormatPPTX, d, images, w)
}

// ExportAs writes d in format to w. Nothing is written to w unless the
// whole document was assembled.
func (e *Exporter) ExportAs(ctx context.Context, format Format, d *deck.Deck, images ImageSource, w io.Writer) error {
	data, err := e.render(ctx, format, d, images)
	if err != nil {
		e.metrics.Exported(string(format), metrics.ResultFailure)
		return err
	}
	if _, err := w.Write(data); err != nil {
		e.metrics.Exported(string(format), metrics.ResultFailure)
		return fmt.Errorf("%w: write: %w", ErrExport, err)
	}
	e.metrics.Exported(string(format), metrics.ResultSuccess)
	return nil
}

// ExportFile writes d in format into dir on fsys and returns the path.
func (e *Exporter) ExportFile(ctx context.Context, fsys afero.Fs, dir string, format Format, d *deck.Deck, images ImageSource) (string, error) {
	var buf bytes.Buffer
	if err := e.ExportAs(ctx, format, d, images, &buf); err != nil {
		return "", err
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrExport, dir, err)
	}
	path := filepath.Join(dir, FileName(d.ProjectName, format))
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrExport, path, err)
	}
	e.logger.Info("Deck exported", "path", path, "format", format, "bytes", buf.Len())
	return path, nil
}

func (e *Exporter) render(ctx context.Context, format Format, d *deck.Deck, images ImageSource) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no deck", ErrExport)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	switch format {
	case FormatPPTX:
		return e.renderPPTX(ctx, d, images)
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExport, err)
		}
		return append(data, '\n'), nil
	case FormatMarkdown:
		return []byte(Markdown(d)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrExport, format)
	}
}

func (e *Exporter) renderPPTX(ctx context.Context, d *deck.Deck, images ImageSource) ([]byte, error) {
	imgs := e.fillImages(ctx, d, images)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	w := pptx.NewWriter()
	w.Title = d.ProjectName
	for i, s := range d.Slides {
		slide := w.AddSlide()
		slide.Notes = s.SpeakerNotes
		r := &slideRenderer{slide: slide, deck: d, index: i, logger: e.logger}
		switch s.Layout() {
		case deck.LayoutTitle:
			r.title(s, imgs[i])
		case deck.LayoutEmphasis:
			r.emphasis(s, imgs[i])
		default:
			r.standard(s, imgs[i])
		}
	}

	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		e.logger.Error("PPTX assembly failed", "project", d.ProjectName, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return buf.Bytes(), nil
}

// fillImages returns one entry per slide; absent images are zero.
func (e *Exporter) fillImages(ctx context.Context, d *deck.Deck, images ImageSource) []deck.Image {
	imgs := make([]deck.Image, len(d.Slides))
	if images == nil {
		return imgs
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, s := range d.Slides {
		g.Go(func() error {
			if img, ok := images.AwaitImage(ctx, s.ID, s.VisualPrompt); ok {
				imgs[i] = img
			} else {
				e.logger.Debug("No image for slide, using placeholder", "slide", s.ID)
			}
			return nil
		})
	}
	_ = g.Wait()
	return imgs
}
