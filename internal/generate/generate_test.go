package generate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookimg/internal/llm"
	"bookimg/internal/svgfix"
	"bookimg/internal/types"
)

type fakeLLM struct {
	name     string
	coverSVG string
	fail     bool
}

func (f *fakeLLM) Name() string {
	return f.name
}

func (f *fakeLLM) GenerateCoverSVG(ctx context.Context, book *types.Book, coverImagePath string) (string, error) {
	if f.fail {
		return "", errors.New("model unavailable")
	}
	return f.coverSVG, nil
}

func (f *fakeLLM) GenerateBannerSVG(ctx context.Context, book *types.Book, coverImagePath, coverSVG string) (string, error) {
	if f.fail {
		return "", errors.New("model unavailable")
	}
	return `<svg><text x="500" font-size="20">banner</text></svg>`, nil
}

func (f *fakeLLM) GenerateCoverSVGDirect(ctx context.Context, book *types.Book) (string, error) {
	return f.GenerateCoverSVG(ctx, book, "")
}

func (f *fakeLLM) GenerateBannerSVGDirect(ctx context.Context, book *types.Book, coverSVG string) (string, error) {
	return f.GenerateBannerSVG(ctx, book, "", coverSVG)
}

func (f *fakeLLM) GenerateCoverImage(ctx context.Context, book *types.Book) (string, error) {
	return "", errors.New("not used here")
}

func testBook() *types.Book {
	return &types.Book{Isbn: "9780140328721", Title: "Matilda", Author: "Roald Dahl"}
}

func TestGenerateAllWritesCorrectedPairs(t *testing.T) {
	dir := t.TempDir()

	g := &Generator{
		Fixer:     svgfix.NewFixer(slog.Default()),
		Logger:    slog.Default(),
		OutputDir: dir,
		Direct:    true,
	}

	model := &fakeLLM{
		name:     "fake",
		coverSVG: `<svg><text x="5" font-size="16" text-anchor="start">Hello World</text></svg>`,
	}

	files := g.GenerateAll(context.Background(), testBook(), "", []llm.Provider{model}, 3)
	if len(files) != 6 {
		t.Fatalf("generated %d files, want 3 runs x (cover+banner) = 6", len(files))
	}

	seen := make(map[string]struct{})
	for _, name := range files {
		if _, ok := seen[name]; ok {
			t.Errorf("duplicate filename %q across runs", name)
		}
		seen[name] = struct{}{}

		if !strings.Contains(name, "_9780140328721_") {
			t.Errorf("filename %q does not carry the ISBN", name)
		}
	}

	// overflow correction must have been applied before persistence
	covers := 0
	for _, name := range files {
		if !strings.Contains(name, "_cover_") {
			continue
		}
		covers++

		bs, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !strings.Contains(string(bs), `x="10.0"`) {
			t.Errorf("%s persisted without overflow correction: %s", name, bs)
		}
	}
	if covers != 3 {
		t.Errorf("found %d cover files, want 3", covers)
	}
}

func TestGenerateAllFailedRunDoesNotCancelSiblings(t *testing.T) {
	dir := t.TempDir()

	g := &Generator{
		Fixer:     svgfix.NewFixer(slog.Default()),
		Logger:    slog.Default(),
		OutputDir: dir,
		Direct:    true,
	}

	bad := &fakeLLM{name: "bad", fail: true}
	good := &fakeLLM{name: "good", coverSVG: `<svg><text x="50" textLength="100">ok</text></svg>`}

	// the failing model aborts each run's pair for that model only after
	// the good model already wrote its files
	files := g.GenerateAll(context.Background(), testBook(), "", []llm.Provider{good, bad}, 2)

	goodFiles := 0
	for _, name := range files {
		if strings.Contains(name, "_good_") {
			goodFiles++
		}
	}
	if goodFiles != 4 {
		t.Errorf("good model produced %d files, want 2 runs x 2 kinds = 4", goodFiles)
	}
}

func TestPairsGroupsByToken(t *testing.T) {
	files := []string{
		"aaaa1111_1_cover_20240101_000000.svg",
		"bbbb2222_1_cover_20240101_000000.svg",
		"aaaa1111_1_banner_20240101_000000.svg",
		"cccc3333_1_banner_20240101_000000.svg", // banner without cover
	}

	pairs := Pairs(files)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 complete pair", len(pairs))
	}

	if pairs[0].Token != "aaaa1111" {
		t.Errorf("Token = %q", pairs[0].Token)
	}
	if pairs[0].Cover != files[0] || pairs[0].Banner != files[2] {
		t.Errorf("pair = %+v", pairs[0])
	}
}
