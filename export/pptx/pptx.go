// Package pptx writes PresentationML (.pptx) packages.
//
// A Writer collects slides made of preset shapes, text and pictures and
// serializes them, together with the slide master, layout, themes, notes
// master, notes slides and media, into a zip container. Text stays
// editable in the resulting document.
package pptx

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/c360studio/repodeck/deck"
)

// mediaExt maps supported image MIME types to part extensions.
var mediaExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
}

// Writer accumulates slides for one presentation.
type Writer struct {
	Title   string
	Creator string
	Created time.Time

	slides []*Slide
	media  []media
}

type media struct {
	name     string // file name under ppt/media
	ext      string
	mimeType string
	data     []byte
}

// Slide is one slide under construction.
type Slide struct {
	// Background is an RRGGBB solid fill; empty inherits the master's.
	Background string
	// Notes is the speaker notes text; newlines separate paragraphs.
	Notes string

	w      *Writer
	items  []any // *Shape or *Picture, in z-order
	images []imageRel
	nextID int
}

type imageRel struct {
	RelID string
	Media string
}

// slideView is the template data for one slide part.
type slideView struct {
	Background string
	Items      []itemView
}

type itemView struct {
	ID      int
	Shape   *Shape
	Picture *Picture
}

// NewWriter creates an empty presentation.
func NewWriter() *Writer {
	return &Writer{Creator: "repodeck"}
}

// AddSlide appends a slide.
func (w *Writer) AddSlide() *Slide {
	s := &Slide{w: w, nextID: 2}
	w.slides = append(w.slides, s)
	return s
}

// Slides returns the number of slides added.
func (w *Writer) Slides() int {
	return len(w.slides)
}

// AddShape appends a shape on top of earlier content.
func (s *Slide) AddShape(sh Shape) {
	sh.id = s.nextID
	s.nextID++
	if sh.Geometry == "" {
		sh.Geometry = GeomRect
	}
	if sh.Name == "" {
		sh.Name = fmt.Sprintf("Shape %d", sh.id)
	}
	s.items = append(s.items, &sh)
}

// AddPicture embeds img in frame. With cover set the image is cropped to
// fill the frame without distortion. Unsupported image types are rejected.
func (s *Slide) AddPicture(img deck.Image, frame Rect, cover bool) error {
	ext, ok := mediaExt[img.MIMEType]
	if !ok {
		return fmt.Errorf("unsupported image type %q", img.MIMEType)
	}
	if len(img.Data) == 0 {
		return fmt.Errorf("empty image")
	}

	name := fmt.Sprintf("image%d.%s", len(s.w.media)+1, ext)
	s.w.media = append(s.w.media, media{name: name, ext: ext, mimeType: img.MIMEType, data: img.Data})

	rel := imageRel{RelID: fmt.Sprintf("rId%d", len(s.images)+3), Media: name}
	s.images = append(s.images, rel)

	pic := &Picture{Name: fmt.Sprintf("Picture %d", s.nextID), Frame: frame, id: s.nextID, RelID: rel.RelID}
	s.nextID++
	if cover {
		if w, h, ok := imageSize(img.Data); ok {
			pic.Crop = CoverCrop(w, h, frame)
		}
	}
	s.items = append(s.items, pic)
	return nil
}

// Write serializes the presentation as a .pptx package.
func (w *Writer) Write(out io.Writer) error {
	if len(w.slides) == 0 {
		return fmt.Errorf("presentation has no slides")
	}
	created := w.Created
	if created.IsZero() {
		created = time.Now()
	}

	zw := zip.NewWriter(out)
	p := &packager{zw: zw}

	p.render("[Content_Types].xml", contentTypesTmpl, w.contentTypes())
	p.raw("_rels/.rels", rootRels)
	p.render("docProps/core.xml", coreTmpl, map[string]any{
		"Title":   w.Title,
		"Creator": w.Creator,
		"Created": created.UTC().Format(time.RFC3339),
	})
	p.render("docProps/app.xml", appTmpl, map[string]any{"Slides": len(w.slides)})

	p.render("ppt/presentation.xml", presentationTmpl, map[string]any{
		"Slides": w.slides,
		"Width":  SlideWidth,
		"Height": SlideHeight,
	})
	p.render("ppt/_rels/presentation.xml.rels", presentationRelsTmpl, w.slides)
	p.raw("ppt/presProps.xml", presProps)
	p.raw("ppt/viewProps.xml", viewProps)
	p.raw("ppt/tableStyles.xml", tableStyles)
	p.raw("ppt/theme/theme1.xml", theme("Repodeck"))
	p.raw("ppt/theme/theme2.xml", theme("Repodeck Notes"))
	p.raw("ppt/slideMasters/slideMaster1.xml", slideMaster)
	p.raw("ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels)
	p.raw("ppt/slideLayouts/slideLayout1.xml", slideLayout)
	p.raw("ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels)
	p.raw("ppt/notesMasters/notesMaster1.xml", notesMaster)
	p.raw("ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRels)

	for i, s := range w.slides {
		n := i + 1
		p.render(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideTmpl, s.view())
		p.render(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsTmpl, map[string]any{
			"N":      n,
			"Images": s.images,
		})
		p.render(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), notesSlideTmpl, notesParagraphs(s.Notes))
		p.render(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), notesSlideRelsTmpl, n)
	}
	for _, m := range w.media {
		p.bytes("ppt/media/"+m.name, m.data)
	}

	if p.err != nil {
		_ = zw.Close()
		return p.err
	}
	return zw.Close()
}

// contentTypes lists default extensions in use and every slide-numbered
// part override.
func (w *Writer) contentTypes() map[string]any {
	exts := map[string]string{}
	for _, m := range w.media {
		exts[m.ext] = m.mimeType
	}
	return map[string]any{"Slides": w.slides, "Media": exts}
}

func (s *Slide) view() slideView {
	v := slideView{Background: s.Background}
	for _, item := range s.items {
		switch it := item.(type) {
		case *Shape:
			v.Items = append(v.Items, itemView{ID: it.id, Shape: it})
		case *Picture:
			v.Items = append(v.Items, itemView{ID: it.id, Picture: it})
		}
	}
	return v
}

func notesParagraphs(notes string) []string {
	notes = strings.ReplaceAll(notes, "\r\n", "\n")
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	return strings.Split(notes, "\n")
}

// packager writes zip entries and keeps the first error.
type packager struct {
	zw  *zip.Writer
	err error
}

func (p *packager) bytes(name string, data []byte) {
	if p.err != nil {
		return
	}
	f, err := p.zw.Create(name)
	if err != nil {
		p.err = fmt.Errorf("create %s: %w", name, err)
		return
	}
	if _, err := f.Write(data); err != nil {
		p.err = fmt.Errorf("write %s: %w", name, err)
	}
}

func (p *packager) raw(name, content string) {
	p.bytes(name, []byte(xmlHeader+content))
}

func (p *packager) render(name, tmpl string, data any) {
	if p.err != nil {
		return
	}
	f, err := p.zw.Create(name)
	if err != nil {
		p.err = fmt.Errorf("create %s: %w", name, err)
		return
	}
	if _, err := io.WriteString(f, xmlHeader); err != nil {
		p.err = fmt.Errorf("write %s: %w", name, err)
		return
	}
	if err := templates.ExecuteTemplate(f, tmpl, data); err != nil {
		p.err = fmt.Errorf("render %s: %w", name, err)
	}
}
