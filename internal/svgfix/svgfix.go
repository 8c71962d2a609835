// Package svgfix detects and corrects horizontal text overflow in generated
// SVG markup. It deliberately works on the markup text with targeted pattern
// scans instead of a DOM parse: corrections are spliced back by exact
// original span, so untouched parts of the document stay byte-identical.
package svgfix

// Kind selects the canvas profile a document is validated against.
type Kind string

const (
	KindCover  Kind = "cover"
	KindBanner Kind = "banner"
)

// Canvas is the drawing area text must stay inside of, minus the safe margin
// inset from each horizontal edge.
type Canvas struct {
	Width  float64
	Margin float64
}

func CanvasFor(kind Kind) Canvas {
	if kind == KindBanner {
		return Canvas{Width: 1024, Margin: 10}
	}

	return Canvas{Width: 236, Margin: 10}
}

func (c Canvas) safeLeft() float64 {
	return c.Margin
}

func (c Canvas) safeRight() float64 {
	return c.Width - c.Margin
}

// Anchor is the SVG text alignment mode: it decides whether the declared x
// position is the left, center or right reference point of the rendered text.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Bounds returns the horizontal extents of a text run of the given width
// positioned at x with the given anchor. Unrecognized anchors behave as
// "start", matching the SVG default.
func Bounds(x, width float64, anchor Anchor) (left, right float64) {
	switch anchor {
	case AnchorMiddle:
		return x - width/2, x + width/2
	case AnchorEnd:
		return x - width, x
	default:
		return x, x + width
	}
}

// offsets from the anchor reference point to the left and right edges
func (a Anchor) leftOffset(width float64) float64 {
	switch a {
	case AnchorMiddle:
		return width / 2
	case AnchorEnd:
		return width
	default:
		return 0
	}
}

func (a Anchor) rightOffset(width float64) float64 {
	switch a {
	case AnchorMiddle:
		return width / 2
	case AnchorEnd:
		return 0
	default:
		return width
	}
}
