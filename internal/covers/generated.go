package covers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"bookimg/internal/llm"
	"bookimg/internal/types"
)

// Generated synthesizes a cover photo through an LLM image model and
// downloads the result. It belongs in the generative tier of the cover
// lookup chain.
type Generated struct {
	Synth  llm.Provider
	Client *http.Client
	Logger *slog.Logger
}

func NewGenerated(synth llm.Provider, client *http.Client, l *slog.Logger) *Generated {
	return &Generated{Synth: synth, Client: client, Logger: l}
}

func (g *Generated) Name() string {
	return "ai-" + g.Synth.Name()
}

func (g *Generated) DownloadCover(ctx context.Context, book *types.Book) (string, error) {
	imageURL, err := g.Synth.GenerateCoverImage(ctx, book)
	if errors.Is(err, llm.ErrUnsupported) {
		// text-only model, not a failure
		g.Logger.Debug(g.Synth.Name() + " does not support cover image generation")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if imageURL == "" {
		return "", nil
	}

	return downloadToFile(ctx, g.Client, imageURL)
}
