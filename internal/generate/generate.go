// Package generate runs the SVG image generation pipeline: per-model cover
// and banner synthesis, overflow correction, and persistence under
// collision-free names.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookimg/internal/llm"
	"bookimg/internal/svgfix"
	"bookimg/internal/types"
)

type Generator struct {
	Fixer     *svgfix.Fixer
	Logger    *slog.Logger
	OutputDir string

	// Direct skips the source cover image and prompts from metadata alone.
	Direct bool
}

// GenerateAll fans out the requested number of independent generation runs.
// Each run is fully isolated: it draws its own random token for filenames
// and its failure never cancels the sibling runs. The combined list of
// written filenames is returned.
func (g *Generator) GenerateAll(ctx context.Context, book *types.Book, coverPath string,
	providers []llm.Provider, parallel int) []string {

	if parallel < 1 {
		parallel = 1
	}

	var (
		mu    sync.Mutex
		files []string
		wg    sync.WaitGroup
	)

	g.Logger.Info("Starting " + strconv.Itoa(parallel) + " parallel generations")

	for i := 1; i <= parallel; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			generated, err := g.generatePair(ctx, book, coverPath, providers, id)
			if err != nil {
				g.Logger.Error("Generation " + strconv.Itoa(id) + " failed: " + err.Error())
			}

			mu.Lock()
			files = append(files, generated...)
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	return files
}

// generatePair produces one cover+banner set per provider, all sharing this
// run's token and timestamp. Files already written before an error stay on
// disk and are reported.
func (g *Generator) generatePair(ctx context.Context, book *types.Book, coverPath string,
	providers []llm.Provider, id int) ([]string, error) {

	token := runToken()
	timestamp := time.Now().Format("20060102_150405")

	var files []string

	for _, p := range providers {
		modelSuffix := ""
		if len(providers) > 1 {
			modelSuffix = "_" + p.Name()
		}

		g.Logger.Info("Generation " + strconv.Itoa(id) + ": generating images with " + p.Name())

		coverSVG, err := g.coverSVG(ctx, p, book, coverPath)
		if err != nil {
			return files, fmt.Errorf("generating cover svg with %s: %w", p.Name(), err)
		}

		coverSVG = g.Fixer.FixOverflow(coverSVG, svgfix.KindCover)

		coverName := fileName(token, book.Isbn, "cover", modelSuffix, timestamp)
		if err := g.write(coverName, coverSVG); err != nil {
			return files, err
		}
		files = append(files, coverName)

		// banner reuses the corrected cover for visual consistency
		bannerSVG, err := g.bannerSVG(ctx, p, book, coverPath, coverSVG)
		if err != nil {
			return files, fmt.Errorf("generating banner svg with %s: %w", p.Name(), err)
		}

		bannerSVG = g.Fixer.FixOverflow(bannerSVG, svgfix.KindBanner)

		bannerName := fileName(token, book.Isbn, "banner", modelSuffix, timestamp)
		if err := g.write(bannerName, bannerSVG); err != nil {
			return files, err
		}
		files = append(files, bannerName)
	}

	return files, nil
}

func (g *Generator) coverSVG(ctx context.Context, p llm.Provider, book *types.Book, coverPath string) (string, error) {
	if g.Direct || coverPath == "" {
		return p.GenerateCoverSVGDirect(ctx, book)
	}

	return p.GenerateCoverSVG(ctx, book, coverPath)
}

func (g *Generator) bannerSVG(ctx context.Context, p llm.Provider, book *types.Book, coverPath, coverSVG string) (string, error) {
	if g.Direct || coverPath == "" {
		return p.GenerateBannerSVGDirect(ctx, book, coverSVG)
	}

	return p.GenerateBannerSVG(ctx, book, coverPath, coverSVG)
}

func (g *Generator) write(name, content string) error {
	path := filepath.Join(g.OutputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	g.Logger.Info("Generated " + name)
	return nil
}

func fileName(token, isbn, kind, modelSuffix, timestamp string) string {
	return token + "_" + isbn + "_" + kind + modelSuffix + "_" + timestamp + ".svg"
}

// runToken is the per-run random disambiguation token mixed into every
// filename the run produces.
func runToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Pair is a cover/banner set produced by one generation run.
type Pair struct {
	Token  string `json:"token"`
	Cover  string `json:"cover"`
	Banner string `json:"banner"`
}

// Pairs groups generated filenames by their token prefix, keeping only
// complete cover+banner sets, in first-seen order.
func Pairs(files []string) []Pair {
	byToken := make(map[string]*Pair)
	var order []string

	for _, name := range files {
		token, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		kind := ""
		if strings.Contains(name, "_cover") {
			kind = "cover"
		} else if strings.Contains(name, "_banner") {
			kind = "banner"
		} else {
			continue
		}

		pair, ok := byToken[token]
		if !ok {
			pair = &Pair{Token: token}
			byToken[token] = pair
			order = append(order, token)
		}

		if kind == "cover" {
			pair.Cover = name
		} else {
			pair.Banner = name
		}
	}

	var pairs []Pair
	for _, token := range order {
		if p := byToken[token]; p.Cover != "" && p.Banner != "" {
			pairs = append(pairs, *p)
		}
	}

	return pairs
}
