package llm

import (
	"strconv"
	"strings"

	"bookimg/internal/types"
)

const promptCoverSVG = `You are designing a stylized SVG book cover, 236x327 units.
Recreate the attached cover photo as clean vector art: flat shapes, a small
coherent palette, readable typography. The cover must contain the title and
the author name as <text> elements. Respond with SVG markup only.

{{book}}`

const promptBannerSVG = `You are designing a wide SVG banner, 1024x200 units,
for the same book. Reuse the palette and mood of this cover SVG:

{{cover_svg}}

Title and author must appear as <text> elements. Respond with SVG markup only.

{{book}}`

const promptCoverSVGDirect = `You are designing a stylized SVG book cover, 236x327 units,
from the metadata alone: flat vector shapes, a small coherent palette, and the
title and author name as <text> elements. Respond with SVG markup only.

{{book}}`

const promptBannerSVGDirect = `You are designing a wide SVG banner, 1024x200 units,
matching the palette and mood of this cover SVG:

{{cover_svg}}

Title and author must appear as <text> elements. Respond with SVG markup only.

{{book}}`

const promptCoverImage = `A book cover photograph for "{{title}}" by {{author}}.
Moody, professional book-jacket composition, no text or lettering. {{description}}`

// formatPrompt fills the {{…}} placeholders of a template from the book
// record and the optional companion cover SVG.
func formatPrompt(template string, book *types.Book, coverSVG string) string {
	summary := strings.Builder{}
	summary.WriteString("Title: " + book.Title + "\n")
	summary.WriteString("Author: " + book.Author + "\n")
	if book.Year != nil {
		summary.WriteString("Published: " + strconv.Itoa(*book.Year) + "\n")
	}
	if book.Description != "" {
		summary.WriteString("About: " + truncate(book.Description, 600) + "\n")
	}

	r := strings.NewReplacer(
		"{{book}}", summary.String(),
		"{{cover_svg}}", coverSVG,
		"{{title}}", book.Title,
		"{{author}}", book.Author,
		"{{description}}", truncate(book.Description, 300),
	)

	return r.Replace(template)
}

func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}

	return string(rs[:max]) + "…"
}
