// Package llm wraps multimodal language-model providers behind one
// capability interface: SVG synthesis from a cover image (or from text
// alone), and cover image synthesis for providers that support it.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bookimg/internal/types"
)

// ErrUnsupported reports that a provider cannot perform an operation at all
// (e.g. a text-only model asked to synthesize an image). Distinct from a
// failed attempt.
var ErrUnsupported = errors.New("operation not supported by this provider")

// Provider is one multimodal model endpoint.
type Provider interface {
	Name() string

	// GenerateCoverSVG synthesizes 236x327 cover markup from a source
	// cover image plus the book metadata.
	GenerateCoverSVG(ctx context.Context, book *types.Book, coverImagePath string) (string, error)

	// GenerateBannerSVG synthesizes 1024x200 banner markup; it receives the
	// already-corrected cover SVG so the pair stays visually consistent.
	GenerateBannerSVG(ctx context.Context, book *types.Book, coverImagePath, coverSVG string) (string, error)

	// Direct variants work from metadata alone, with no source image.
	GenerateCoverSVGDirect(ctx context.Context, book *types.Book) (string, error)
	GenerateBannerSVGDirect(ctx context.Context, book *types.Book, coverSVG string) (string, error)

	// GenerateCoverImage returns a remote URL of a synthesized cover photo,
	// or ErrUnsupported.
	GenerateCoverImage(ctx context.Context, book *types.Book) (string, error)
}

// Config carries credentials and overridable endpoints for all providers.
type Config struct {
	OpenAIKey    string
	AnthropicKey string

	// Endpoint overrides, used by tests; empty means the public API.
	OpenAIBaseURL    string
	AnthropicBaseURL string

	Client *http.Client
}

func (c Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	return http.DefaultClient
}

// Create builds the provider registered under the given model name.
func Create(model string, cfg Config) (Provider, error) {
	switch model {
	case "gpt-5":
		return newOpenAI(cfg)
	case "claude":
		return newAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unsupported model %q, available models: %s",
			model, strings.Join(Models(), ", "))
	}
}

// Models lists the model names Create accepts.
func Models() []string {
	return []string{"gpt-5", "claude"}
}

var regSVGDocument = regexp.MustCompile(`(?s)<svg.*</svg>`)

// cleanSVGOutput strips markdown fences and any reasoning preamble around
// the generated markup, keeping the first <svg>…</svg> document.
func cleanSVGOutput(response string) string {
	if doc := regSVGDocument.FindString(response); doc != "" {
		return doc
	}

	return strings.TrimSpace(response)
}

// encodeImageFile reads the file and returns its base64 payload and media
// type (by extension, JPEG when unknown).
func encodeImageFile(path string) (data, mediaType string, err error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading cover image: %w", err)
	}

	mediaType = "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mediaType = "image/png"
	case ".webp":
		mediaType = "image/webp"
	case ".gif":
		mediaType = "image/gif"
	}

	return base64.StdEncoding.EncodeToString(bs), mediaType, nil
}
