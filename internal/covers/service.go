// Package covers obtains a local cover image file for a book, trying web
// sources in order and falling back to AI image synthesis.
package covers

import (
	"context"
	"log/slog"

	"bookimg/internal/types"
)

// Provider is one cover source. An empty path with nil error means the
// source has no cover for the book.
type Provider interface {
	Name() string
	DownloadCover(ctx context.Context, book *types.Book) (string, error)
}

// Service tries each regular provider in order and returns the first
// downloaded file path. Only when every regular source is exhausted does it
// move on to the generative tier. Total exhaustion yields "", never an
// error. Provider chains are caller-supplied.
type Service struct {
	Regular    []Provider
	Generative []Provider
	Logger     *slog.Logger
}

func NewService(l *slog.Logger, regular, generative []Provider) *Service {
	return &Service{Regular: regular, Generative: generative, Logger: l}
}

// Download returns a local file path with the cover image, or "" if no
// source could produce one.
func (s *Service) Download(ctx context.Context, book *types.Book) string {
	if path := s.tryTier(ctx, s.Regular, book); path != "" {
		return path
	}

	if len(s.Generative) == 0 {
		s.Logger.Info("No cover image found from available sources and AI generation is not configured")
		return ""
	}

	s.Logger.Info("No cover image found from available sources, generating AI cover as fallback")

	if path := s.tryTier(ctx, s.Generative, book); path != "" {
		return path
	}

	s.Logger.Info("Failed to generate an AI cover image as fallback")
	return ""
}

func (s *Service) tryTier(ctx context.Context, tier []Provider, book *types.Book) string {
	for _, p := range tier {
		path, err := p.DownloadCover(ctx, book)
		if err != nil {
			s.Logger.Warn("Cover download via " + p.Name() + " failed: " + err.Error())
			continue
		}

		if path != "" {
			s.Logger.Debug("Cover for " + book.Isbn + " downloaded via " + p.Name() + " to " + path)
			return path
		}
	}

	return ""
}
