// Package metadata looks up book metadata by ISBN across an ordered chain of
// sources, merging partial results.
package metadata

import (
	"context"
	"log/slog"

	"bookimg/internal/types"
)

// Provider is one metadata source. A nil book with nil error means the
// source does not know the ISBN.
type Provider interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) (*types.Book, error)
}

// Service queries every provider in declared priority order and merges the
// results: the first success is the base, later successes only fill optional
// fields the base is still missing. The chain is caller-supplied so order
// and membership stay an explicit, testable input.
type Service struct {
	Providers []Provider
	Logger    *slog.Logger
}

func NewService(l *slog.Logger, providers ...Provider) *Service {
	return &Service{Providers: providers, Logger: l}
}

// Lookup returns the merged book, or nil if every provider failed or came up
// empty. A provider failure only removes that provider from the merge; it is
// logged and never surfaced.
func (s *Service) Lookup(ctx context.Context, isbn string) *types.Book {
	var merged *types.Book

	for _, p := range s.Providers {
		book, err := p.LookupISBN(ctx, isbn)
		if err != nil {
			s.Logger.Warn("Metadata lookup via " + p.Name() + " failed: " + err.Error())
			continue
		}

		if book == nil {
			s.Logger.Debug("No metadata for " + isbn + " via " + p.Name())
			continue
		}

		if merged == nil {
			merged = book
		} else {
			merged.FillMissingFrom(book)
		}
	}

	return merged
}
