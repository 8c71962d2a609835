package svgfix

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Repositioning below this delta is float jitter, not a correction.
const minShift = 0.1

// Font sizes are never shrunk below this, whatever the overflow.
const minFontSize = 10.0

const shrinkFactor = 0.9

// FindOverflowing scans the markup for <text> elements whose horizontal
// bounds violate the canvas safe margin, in document order. Elements whose
// x position is absent or non-numeric cannot be evaluated and are skipped.
// Two textually identical flagged elements cannot be told apart by the
// span-replacement step; that ambiguity is a known limitation.
func FindOverflowing(doc string, canvas Canvas) []TextElement {
	var flagged []TextElement

	for _, raw := range regText.FindAllString(doc, -1) {
		el, ok := parseTextElement(raw)
		if !ok {
			continue
		}

		if elementOverflows(el, canvas) {
			flagged = append(flagged, el)
		}
	}

	return flagged
}

// Equality with the safe boundary counts as in bounds.
func elementOverflows(el TextElement, canvas Canvas) bool {
	left, right := Bounds(el.X, el.Width, el.Anchor)
	return left < canvas.safeLeft() || right > canvas.safeRight()
}

// Fixer applies minimal-edit overflow corrections to SVG markup.
type Fixer struct {
	Logger *slog.Logger
}

func NewFixer(l *slog.Logger) *Fixer {
	return &Fixer{Logger: l}
}

// FixOverflow returns the markup with every flagged <text> element brought
// back in bounds: repositioned first, then (only if still overflowing) its
// font shrunk one step. A document that needs no fixes is returned
// byte-identical. FixOverflow never fails outward; if anything goes wrong
// mid-correction the original markup is returned unchanged.
func (f *Fixer) FixOverflow(doc string, kind Kind) (out string) {
	out = doc

	defer func() {
		if r := recover(); r != nil {
			f.Logger.Error("Overflow fixer recovered, markup left unchanged", slog.Any("panic", r))
			out = doc
		}
	}()

	canvas := CanvasFor(kind)
	fixed := doc
	applied := false

	// Each fix is computed from the element's own attributes as originally
	// matched; elements are positioned independently of each other.
	for _, el := range FindOverflowing(doc, canvas) {
		corrected := f.fixElement(el, canvas)
		if corrected != el.Raw {
			fixed = strings.Replace(fixed, el.Raw, corrected, 1)
			applied = true
		}
	}

	if applied {
		f.Logger.Info("Applied overflow fixes to " + string(kind) + " markup")
	}

	return fixed
}

func (f *Fixer) fixElement(el TextElement, canvas Canvas) string {
	raw := repositionText(el, canvas)

	// Re-evaluate the already-repositioned element; shrinking is the final
	// step and does not re-attempt repositioning.
	if el2, ok := parseTextElement(raw); ok && elementOverflows(el2, canvas) {
		raw = shrinkFontSize(el2)
	}

	return raw
}

// repositionText moves the element so the offending edge sits exactly on the
// safe boundary. A right-edge fix never pushes the left edge past the left
// margin.
func repositionText(el TextElement, canvas Canvas) string {
	left, right := Bounds(el.X, el.Width, el.Anchor)

	newX := el.X
	if left < canvas.safeLeft() {
		newX = canvas.safeLeft() + el.Anchor.leftOffset(el.Width)
	} else if right > canvas.safeRight() {
		newX = canvas.safeRight() - el.Anchor.rightOffset(el.Width)
		if min := canvas.safeLeft() + el.Anchor.leftOffset(el.Width); newX < min {
			newX = min
		}
	}

	delta := newX - el.X
	if delta < minShift && delta > -minShift {
		return el.Raw
	}

	return spliceSubmatch(el.Raw, regAttrX, formatNum(newX))
}

// shrinkFontSize applies one 10% reduction, floored at minFontSize, written
// back to whichever of the font-size attribute or the style declaration
// carried the size. Elements that declared no size get a font-size attribute
// injected.
func shrinkFontSize(el TextElement) string {
	size := el.FontSize * shrinkFactor
	if size < minFontSize {
		size = minFontSize
	}
	formatted := formatNum(size)

	switch el.carrier {
	case fontCarrierAttr:
		// a declared unit (e.g. "16px") survives the rewrite
		if m := regAttrFontSize.FindStringSubmatch(el.Raw); m != nil {
			formatted += fontSizeSuffix(m[1])
		}
		return spliceSubmatch(el.Raw, regAttrFontSize, formatted)
	case fontCarrierStyle:
		sm := regAttrStyle.FindStringSubmatchIndex(el.Raw)
		style := el.Raw[sm[2]:sm[3]]
		return el.Raw[:sm[2]] + spliceSubmatch(style, regStyleFontSize, formatted) + el.Raw[sm[3]:]
	default:
		return strings.Replace(el.Raw, "<text", `<text font-size="`+formatted+`"`, 1)
	}
}

// fontSizeSuffix returns whatever trails the numeric part of a font-size
// attribute value, "" when there is none.
func fontSizeSuffix(value string) string {
	if loc := regNumPrefix.FindStringIndex(value); loc != nil {
		return strings.TrimSpace(value[loc[1]:])
	}

	return ""
}

// spliceSubmatch replaces the first capture group of reg's first match in s.
func spliceSubmatch(s string, reg *regexp.Regexp, replacement string) string {
	m := reg.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}

	return s[:m[2]] + replacement + s[m[3]:]
}

// Positions and sizes are written with one decimal so repeated passes
// reformat to the same bytes.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
