package export

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/export/pptx"
)

// Palette.
const (
	colorDark       = "0F172A"
	colorPanel      = "1E293B"
	colorBody       = "334155"
	colorMuted      = "64748B"
	colorFaint      = "94A3B8"
	colorSubtitle   = "CBD5E1"
	colorRule       = "E2E8F0"
	colorWash       = "F1F5F9"
	colorTint       = "EEF2FF"
	colorAccent     = "6366F1"
	colorAccentDeep = "4F46E5"
	colorWhite      = "FFFFFF"
)

var in = pptx.Inches

// slideRenderer lays out one deck slide onto a pptx slide.
type slideRenderer struct {
	slide  *pptx.Slide
	deck   *deck.Deck
	index  int
	logger *slog.Logger
}

// picture places img in frame, reporting false if it could not be embedded.
func (r *slideRenderer) picture(img deck.Image, frame pptx.Rect) bool {
	if img.IsZero() {
		return false
	}
	if err := r.slide.AddPicture(img, frame, true); err != nil {
		r.logger.Warn("Image not embeddable, using placeholder", "slide", r.deck.Slides[r.index].ID, "error", err)
		return false
	}
	return true
}

func (r *slideRenderer) text(name string, frame pptx.Rect, anchor string, paras ...pptx.Paragraph) {
	r.slide.AddShape(pptx.Shape{
		Name:  name,
		Frame: frame,
		Text:  &pptx.TextBody{Anchor: anchor, Paragraphs: paras},
	})
}

// title renders the full-bleed opening slide.
func (r *slideRenderer) title(s deck.Slide, img deck.Image) {
	full := pptx.Rect{W: pptx.SlideWidth, H: pptx.SlideHeight}
	if !r.picture(img, full) {
		r.slide.Background = colorDark
	}
	r.slide.AddShape(pptx.Shape{Name: "Overlay", Frame: full, Fill: colorDark, FillAlpha: 60})

	r.slide.AddShape(pptx.Shape{
		Name:     "Badge",
		Frame:    pptx.Rect{X: in(0.8), Y: in(2.1), W: in(2.9), H: in(0.42)},
		Geometry: pptx.GeomRoundRect,
		Fill:     colorAccent,
		Text: &pptx.TextBody{Anchor: "ctr", Inset: in(0.05), Paragraphs: []pptx.Paragraph{
			{Runs: []pptx.Run{{Text: "INVESTOR PRESENTATION", Size: 12, Bold: true, Color: colorWhite}}, Align: "ctr"},
		}},
	})
	r.text("Title", pptx.Rect{X: in(0.8), Y: in(2.7), W: in(11.7), H: in(1.6)}, "b",
		pptx.Bold(s.Title, 54, colorWhite))

	r.slide.AddShape(pptx.Shape{Name: "Accent", Frame: pptx.Rect{X: in(0.8), Y: in(4.55), W: in(0.08), H: in(0.9)}, Fill: colorAccent})
	subtitle := r.deck.Subtitle(s)
	r.text("Subtitle", pptx.Rect{X: in(1.05), Y: in(4.5), W: in(11), H: in(1.0)}, "ctr",
		pptx.Text(subtitle, 24, colorSubtitle))

	var rest []string
	for _, b := range s.Bullets {
		if b != subtitle {
			rest = append(rest, b)
		}
	}
	if len(rest) > 0 {
		paras := bullets(rest, pptx.BulletDot, 16)
		for i := range paras {
			paras[i].Runs[0].Color = colorFaint
			paras[i].SpaceAfter = 4
		}
		r.text("Bullets", pptx.Rect{X: in(1.05), Y: in(5.6), W: in(11), H: in(1.5)}, "t", paras...)
	}
}

// emphasis renders the split canvas used for PROBLEM, MARKET and VISION.
func (r *slideRenderer) emphasis(s deck.Slide, img deck.Image) {
	r.slide.Background = colorWhite
	half := pptx.SlideWidth / 2

	r.slide.AddShape(pptx.Shape{
		Name:     "Kind",
		Frame:    pptx.Rect{X: in(0.6), Y: in(0.6), W: in(2.8), H: in(0.42)},
		Geometry: pptx.GeomRoundRect,
		Fill:     colorTint,
		Text: &pptx.TextBody{Anchor: "ctr", Inset: in(0.05), Paragraphs: []pptx.Paragraph{
			{Runs: []pptx.Run{{Text: s.Kind.Glyph() + "  " + s.Kind.Label(), Size: 12, Bold: true, Color: colorAccentDeep}}, Align: "ctr"},
		}},
	})
	r.text("Title", pptx.Rect{X: in(0.6), Y: in(1.2), W: in(5.8), H: in(1.4)}, "t",
		pptx.Bold(s.Title, 36, colorDark))
	r.text("Bullets", pptx.Rect{X: in(0.6), Y: in(2.7), W: in(5.8), H: in(2.7)}, "t",
		bullets(s.Bullets, pptx.BulletDot, 18)...)

	if s.Highlight != "" {
		r.slide.AddShape(pptx.Shape{Name: "Quote", Frame: pptx.Rect{X: in(0.6), Y: in(5.55), W: in(5.8), H: in(1.0)}, Fill: colorTint})
		r.slide.AddShape(pptx.Shape{Name: "Quote Bar", Frame: pptx.Rect{X: in(0.6), Y: in(5.55), W: in(0.08), H: in(1.0)}, Fill: colorAccent})
		r.text("Highlight", pptx.Rect{X: in(0.85), Y: in(5.55), W: in(5.5), H: in(1.0)}, "ctr",
			pptx.Paragraph{Runs: []pptx.Run{{Text: `"` + s.Highlight + `"`, Size: 20, Italic: true, Bold: true, Color: colorAccentDeep}}})
	}

	right := pptx.Rect{X: half, W: pptx.SlideWidth - half, H: pptx.SlideHeight}
	if !r.picture(img, right) {
		r.slide.AddShape(pptx.Shape{
			Name:  "Visual Placeholder",
			Frame: right,
			Fill:  colorPanel,
			Text: &pptx.TextBody{Anchor: "ctr", Inset: in(0.5), Paragraphs: []pptx.Paragraph{
				{Runs: []pptx.Run{{Text: "Prompt: " + s.VisualPrompt, Size: 14, Italic: true, Color: colorFaint}}, Align: "ctr"},
			}},
		})
	}

	r.text("Footer", pptx.Rect{X: in(0.6), Y: in(6.9), W: in(3), H: in(0.35)}, "ctr",
		pptx.Bold("PITCH DECK", 10, colorFaint))
}

// standard renders header, numbered list and image panel.
func (r *slideRenderer) standard(s deck.Slide, img deck.Image) {
	r.slide.Background = colorWhite

	r.text("Kind", pptx.Rect{X: in(0.6), Y: in(0.4), W: in(6), H: in(0.35)}, "ctr",
		pptx.Bold(s.Kind.Label(), 12, colorAccent))
	r.text("Title", pptx.Rect{X: in(0.6), Y: in(0.75), W: in(12.1), H: in(0.9)}, "t",
		pptx.Bold(s.Title, 32, colorDark))
	r.slide.AddShape(pptx.Shape{Name: "Rule", Frame: pptx.Rect{X: in(0.6), Y: in(1.7), W: in(12.1), H: in(0.02)}, Fill: colorRule})

	listHeight := in(4.55)
	if s.Highlight != "" {
		listHeight = in(3.4)
	}
	r.text("Bullets", pptx.Rect{X: in(0.6), Y: in(2.0), W: in(6.4), H: listHeight}, "t",
		bullets(s.Bullets, pptx.BulletNumber, 18)...)

	if s.Highlight != "" {
		r.slide.AddShape(pptx.Shape{
			Name:     "Key Takeaway",
			Frame:    pptx.Rect{X: in(0.6), Y: in(5.55), W: in(6.4), H: in(1.0)},
			Geometry: pptx.GeomRoundRect,
			Fill:     colorTint,
			Text: &pptx.TextBody{Anchor: "ctr", Inset: in(0.2), Paragraphs: []pptx.Paragraph{
				pptx.Bold("KEY TAKEAWAY", 11, colorAccentDeep),
				pptx.Bold(s.Highlight, 16, colorDark),
			}},
		})
	}

	panel := pptx.Rect{X: in(7.4), Y: in(2.0), W: in(5.3), H: in(4.55)}
	if !r.picture(img, panel) {
		r.slide.AddShape(pptx.Shape{
			Name:     "Visual Placeholder",
			Frame:    panel,
			Geometry: pptx.GeomRoundRect,
			Fill:     colorWash,
			Line:     colorSubtitle,
			LineDash: true,
			Text: &pptx.TextBody{Anchor: "ctr", Inset: in(0.4), Paragraphs: []pptx.Paragraph{
				{Runs: []pptx.Run{{Text: "AI VISUAL CONCEPT", Size: 12, Bold: true, Color: colorMuted}}, Align: "ctr", SpaceAfter: 8},
				{Runs: []pptx.Run{{Text: `"` + s.VisualPrompt + `"`, Size: 12, Italic: true, Color: colorMuted}}, Align: "ctr"},
			}},
		})
	}

	r.text("Footer", pptx.Rect{X: in(0.6), Y: in(6.95), W: in(3), H: in(0.35)}, "ctr",
		pptx.Bold("CONFIDENTIAL", 10, colorFaint))
	r.text("Page", pptx.Rect{X: in(10.7), Y: in(6.95), W: in(2), H: in(0.35)}, "ctr",
		pptx.Paragraph{Runs: []pptx.Run{{Text: fmt.Sprintf("%d / %d", r.index+1, len(r.deck.Slides)), Size: 10, Color: colorFaint}}, Align: "r"})
}

func bullets(items []string, style pptx.Bullet, size float64) []pptx.Paragraph {
	paras := make([]pptx.Paragraph, 0, len(items))
	for _, b := range items {
		paras = append(paras, pptx.Paragraph{
			Runs:       []pptx.Run{{Text: b, Size: size, Color: colorBody}},
			Bullet:     style,
			SpaceAfter: 10,
		})
	}
	return paras
}
