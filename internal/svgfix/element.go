package svgfix

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Average glyph width relative to font size, a conservative estimate used
// only when the markup does not declare a textLength.
const avgCharWidth = 0.7

const defaultFontSize = 16.0

var (
	// Non-greedy and multi-line: tolerates attributes in any order and
	// nested markup (tspan etc.) inside the content. A literal "</text>"
	// inside the text content would mis-pair the match; well-formed,
	// non-nested text elements are assumed.
	regText = regexp.MustCompile(`(?s)<text[^>]*>.*?</text>`)

	regAttrX          = regexp.MustCompile(`\sx="([^"]*)"`)
	regAttrFontSize   = regexp.MustCompile(`font-size="([^"]*)"`)
	regAttrTextLength = regexp.MustCompile(`textLength="([^"]*)"`)
	regAttrAnchor     = regexp.MustCompile(`text-anchor="([^"]*)"`)
	regAttrStyle      = regexp.MustCompile(`style="([^"]*)"`)

	regStyleFontSize = regexp.MustCompile(`font-size:\s*([\d.]+)[a-z%]*`)
	regStyleAnchor   = regexp.MustCompile(`text-anchor:\s*([a-z]+)`)

	regNumPrefix = regexp.MustCompile(`[\d.]+`)
	regAnyTag    = regexp.MustCompile(`<[^>]*>`)
)

// where a parsed element carries its font size, for write-back
type fontCarrier uint8

const (
	fontCarrierNone fontCarrier = iota
	fontCarrierAttr
	fontCarrierStyle
)

// TextElement is one parsed <text> occurrence. Raw keeps the exact matched
// span so a correction can be substituted back by string replacement.
type TextElement struct {
	Raw      string
	X        float64
	FontSize float64
	Width    float64
	Anchor   Anchor

	carrier fontCarrier
}

// parseTextElement extracts geometry attributes from one matched <text> span.
// Elements without a numeric x position cannot be evaluated and report ok=false.
func parseTextElement(raw string) (TextElement, bool) {
	// Attributes live in the opening tag only; nested tspans may carry
	// their own x which must not shadow the element's.
	openEnd := strings.IndexByte(raw, '>')
	if openEnd < 0 {
		return TextElement{}, false
	}
	openTag := raw[:openEnd+1]

	xm := regAttrX.FindStringSubmatch(openTag)
	if xm == nil {
		return TextElement{}, false
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(xm[1]), 64)
	if err != nil {
		return TextElement{}, false
	}

	size, carrier := parseFontSize(openTag)

	width, declared := parseDeclaredWidth(openTag)
	if !declared {
		width = float64(contentLength(raw)) * size * avgCharWidth
	}

	return TextElement{
		Raw:      raw,
		X:        x,
		FontSize: size,
		Width:    width,
		Anchor:   parseAnchor(openTag),
		carrier:  carrier,
	}, true
}

func parseFontSize(openTag string) (float64, fontCarrier) {
	if m := regAttrFontSize.FindStringSubmatch(openTag); m != nil {
		if num := regNumPrefix.FindString(m[1]); num != "" {
			if size, err := strconv.ParseFloat(num, 64); err == nil {
				return size, fontCarrierAttr
			}
		}
	}

	if m := regAttrStyle.FindStringSubmatch(openTag); m != nil {
		if sm := regStyleFontSize.FindStringSubmatch(m[1]); sm != nil {
			if size, err := strconv.ParseFloat(sm[1], 64); err == nil {
				return size, fontCarrierStyle
			}
		}
	}

	return defaultFontSize, fontCarrierNone
}

// parseDeclaredWidth reads textLength, which reflects the renderer's
// authoritative measurement and always wins over an estimate.
func parseDeclaredWidth(openTag string) (float64, bool) {
	m := regAttrTextLength.FindStringSubmatch(openTag)
	if m == nil {
		return 0, false
	}

	if num := regNumPrefix.FindString(m[1]); num != "" {
		if width, err := strconv.ParseFloat(num, 64); err == nil {
			return width, true
		}
	}

	return 0, false
}

func parseAnchor(openTag string) Anchor {
	value := ""
	if m := regAttrAnchor.FindStringSubmatch(openTag); m != nil {
		value = m[1]
	} else if m := regAttrStyle.FindStringSubmatch(openTag); m != nil {
		if sm := regStyleAnchor.FindStringSubmatch(m[1]); sm != nil {
			value = sm[1]
		}
	}

	switch Anchor(strings.TrimSpace(value)) {
	case AnchorMiddle:
		return AnchorMiddle
	case AnchorEnd:
		return AnchorEnd
	default:
		return AnchorStart
	}
}

// contentLength counts the visible characters of the element, with nested
// tags replaced by single spaces and the ends trimmed.
func contentLength(raw string) int {
	content := regAnyTag.ReplaceAllString(raw, " ")
	return utf8.RuneCountInString(strings.TrimSpace(content))
}
