package pptx

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder for DecodeConfig
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"math"
)

// EMU per inch. All geometry is in English Metric Units.
const emuPerInch = 914400

// Widescreen 16:9 slide size.
const (
	SlideWidth  int64 = 12192000
	SlideHeight int64 = 6858000
)

// Inches converts inches to EMU.
func Inches(in float64) int64 {
	return int64(in * emuPerInch)
}

// Rect is a frame on the slide.
type Rect struct {
	X, Y, W, H int64
}

// Geometry names a preset shape.
type Geometry string

// Preset geometries used by the layouts.
const (
	GeomRect      Geometry = "rect"
	GeomRoundRect Geometry = "roundRect"
)

// Bullet selects paragraph bullet style.
type Bullet int

// Bullet styles.
const (
	BulletNone Bullet = iota
	BulletDot
	BulletNumber
)

// Run is a span of uniformly formatted text. Size is in points.
type Run struct {
	Text   string
	Size   float64
	Bold   bool
	Italic bool
	Color  string // RRGGBB
	Font   string
}

// Paragraph is one line of a text body.
type Paragraph struct {
	Runs       []Run
	Align      string // l, ctr or r; empty means l
	Bullet     Bullet
	SpaceAfter float64 // points
}

// TextBody holds paragraphs and their vertical anchor (t, ctr or b).
type TextBody struct {
	Anchor     string
	Inset      int64
	Paragraphs []Paragraph
}

// Shape is a preset-geometry shape with optional fill, outline and text.
type Shape struct {
	Name      string
	Frame     Rect
	Geometry  Geometry
	Fill      string // RRGGBB, empty for none
	FillAlpha int    // percent opacity, 0 means opaque
	Line      string // RRGGBB, empty for none
	LineDash  bool
	Text      *TextBody

	id int
}

// Crop trims a picture, each side in thousandths of a percent.
type Crop struct {
	Left, Top, Right, Bottom int
}

// Picture is an embedded image in a frame.
type Picture struct {
	Name  string
	Frame Rect
	Crop  Crop

	// RelID is the slide relationship of the embedded media.
	RelID string

	id int
}

// CoverCrop returns the crop that makes an imgW x imgH image fill frame
// without distortion, trimming equally from both overflowing sides.
func CoverCrop(imgW, imgH int, frame Rect) Crop {
	if imgW <= 0 || imgH <= 0 || frame.W <= 0 || frame.H <= 0 {
		return Crop{}
	}
	imgAspect := float64(imgW) / float64(imgH)
	frameAspect := float64(frame.W) / float64(frame.H)

	switch {
	case imgAspect > frameAspect:
		side := int(math.Round((1 - frameAspect/imgAspect) / 2 * 100000))
		return Crop{Left: side, Right: side}
	case imgAspect < frameAspect:
		side := int(math.Round((1 - imgAspect/frameAspect) / 2 * 100000))
		return Crop{Top: side, Bottom: side}
	default:
		return Crop{}
	}
}

// imageSize decodes just the image header.
func imageSize(data []byte) (int, int, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// Text builds a single-run paragraph.
func Text(text string, size float64, color string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text, Size: size, Color: color}}}
}

// Bold builds a single bold-run paragraph.
func Bold(text string, size float64, color string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text, Size: size, Color: color, Bold: true}}}
}
