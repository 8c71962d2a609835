package svgfix

import (
	"log/slog"
	"strings"
	"testing"
)

func testFixer() *Fixer {
	return NewFixer(slog.Default())
}

func TestFixOverflowRepositionsLeftEdge(t *testing.T) {
	in := `<svg><text x="5" font-size="16" text-anchor="start">Hello World</text></svg>`
	want := `<svg><text x="10.0" font-size="16" text-anchor="start">Hello World</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if got != want {
		t.Errorf("FixOverflow = %q, want %q", got, want)
	}
}

func TestFixOverflowLeavesFittingBannerUntouched(t *testing.T) {
	// width estimate = 12 * 40 * 0.7 = 336; bounds [564, 900] within [10, 1014]
	in := `<svg><text x="900" font-size="40" text-anchor="end">Banner Title</text></svg>`

	got := testFixer().FixOverflow(in, KindBanner)
	if got != in {
		t.Errorf("fitting document was modified:\n%q", got)
	}
}

func TestFixOverflowRepositionThenShrink(t *testing.T) {
	// 20 chars at size 16 estimate to 224, wider than the 216 safe span:
	// reposition to the left boundary cannot be enough on its own.
	text := strings.Repeat("a", 20)
	in := `<svg><text x="50" font-size="16">` + text + `</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)

	if !strings.Contains(got, `x="10.0"`) {
		t.Errorf("element not moved to the left boundary: %q", got)
	}
	if !strings.Contains(got, `font-size="14.4"`) {
		t.Errorf("font not shrunk by one step: %q", got)
	}

	// 20 * 14.4 * 0.7 = 201.6 fits; nothing left to flag
	if flagged := FindOverflowing(got, CanvasFor(KindCover)); len(flagged) != 0 {
		t.Errorf("corrected document still flags %d elements", len(flagged))
	}
}

func TestFixOverflowIdempotent(t *testing.T) {
	docs := []string{
		`<svg><text x="5" font-size="16" text-anchor="start">Hello World</text></svg>`,
		`<svg><text x="50" font-size="16">` + strings.Repeat("a", 20) + `</text></svg>`,
		// floor case: stays overflowing even at the minimum size
		`<svg><text x="5" font-size="11">` + strings.Repeat("b", 40) + `</text></svg>`,
		`<svg><text x="100" font-size="40" text-anchor="middle">Centered</text></svg>`,
		`<svg><rect width="236" height="327"/></svg>`,
	}

	f := testFixer()
	for _, in := range docs {
		once := f.FixOverflow(in, KindCover)
		twice := f.FixOverflow(once, KindCover)
		if once != twice {
			t.Errorf("not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
		}
	}
}

func TestFixOverflowFontFloor(t *testing.T) {
	// any number of hypothetical shrink steps still lands on the floor
	in := `<svg><text x="5" font-size="11">` + strings.Repeat("b", 40) + `</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `font-size="10.0"`) {
		t.Errorf("font size not floored at 10.0: %q", got)
	}
}

func TestFixOverflowShrinkWritesBackIntoStyle(t *testing.T) {
	text := strings.Repeat("a", 20)
	in := `<svg><text x="50" style="fill:#222; font-size: 16px">` + text + `</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `style="fill:#222; font-size: 14.4px"`) {
		t.Errorf("style declaration not updated in place: %q", got)
	}
	if strings.Contains(got, `font-size="`) {
		t.Errorf("font-size attribute injected although style carried the size: %q", got)
	}
}

func TestFixOverflowShrinkKeepsAttributeUnit(t *testing.T) {
	text := strings.Repeat("a", 20)
	in := `<svg><text x="50" font-size="16px">` + text + `</text></svg>`

	f := testFixer()

	got := f.FixOverflow(in, KindCover)
	if !strings.Contains(got, `font-size="14.4px"`) {
		t.Errorf("attribute unit dropped on shrink: %q", got)
	}

	if twice := f.FixOverflow(got, KindCover); twice != got {
		t.Errorf("not idempotent with a unit suffix:\nfirst:  %q\nsecond: %q", got, twice)
	}
}

func TestFixOverflowInjectsFontSizeWhenNoneDeclared(t *testing.T) {
	// default size 16 applies; 20 chars still overflow after repositioning
	text := strings.Repeat("a", 20)
	in := `<svg><text x="50">` + text + `</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `<text font-size="14.4" x="10.0">`) {
		t.Errorf("font-size attribute not injected: %q", got)
	}
}

func TestFixOverflowMiddleAnchor(t *testing.T) {
	// declared width 100 centered at 200: bounds [150, 250], right past 226
	in := `<svg><text x="200" textLength="100" text-anchor="middle">centered run</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `x="176.0"`) {
		t.Errorf("middle anchor not placed at safeRight - width/2: %q", got)
	}
}

func TestFixOverflowEndAnchorLeftEdge(t *testing.T) {
	// width 100 anchored right at x=50: left edge at -50
	in := `<svg><text x="50" textLength="100" text-anchor="end">right aligned</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `x="110.0"`) {
		t.Errorf("end anchor not placed at safeLeft + width: %q", got)
	}
}

func TestFixOverflowSkipsUnparseableElements(t *testing.T) {
	in := `<svg><text font-size="90">` + strings.Repeat("x", 50) + `</text></svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if got != in {
		t.Errorf("element without x position was modified: %q", got)
	}
}

func TestFixOverflowOnlyTouchesFlaggedSpans(t *testing.T) {
	in := `<svg>` +
		`<text x="20" textLength="50">stays put</text>` +
		`<text x="5" font-size="16" text-anchor="start">Hello World</text>` +
		`</svg>`

	got := testFixer().FixOverflow(in, KindCover)
	if !strings.Contains(got, `<text x="20" textLength="50">stays put</text>`) {
		t.Errorf("untouched element changed: %q", got)
	}
	if !strings.Contains(got, `x="10.0"`) {
		t.Errorf("flagged element not corrected: %q", got)
	}
}
