package deck

// Layout is the visual template a slide is rendered with.
type Layout int

// Layouts. Every Kind maps to exactly one of these.
const (
	// LayoutStandard is a header plus a numbered list beside an image panel.
	LayoutStandard Layout = iota
	// LayoutTitle is a full-bleed background with large title text.
	LayoutTitle
	// LayoutEmphasis is a split canvas: text on the left, image on the right.
	LayoutEmphasis
)

// layouts is the kind to layout table. Kinds missing here use LayoutStandard.
var layouts = map[Kind]Layout{
	KindTitle:   LayoutTitle,
	KindProblem: LayoutEmphasis,
	KindMarket:  LayoutEmphasis,
	KindVision:  LayoutEmphasis,
}

// LayoutFor returns the layout used for slides of kind k.
func LayoutFor(k Kind) Layout {
	if l, ok := layouts[k]; ok {
		return l
	}
	return LayoutStandard
}

func (l Layout) String() string {
	switch l {
	case LayoutTitle:
		return "title"
	case LayoutEmphasis:
		return "emphasis"
	default:
		return "standard"
	}
}
