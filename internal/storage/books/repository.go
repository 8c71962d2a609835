package books

import (
	"context"

	"bookimg/internal/types"
)

type Repository interface {
	// GetByISBN shall return nil without error when the ISBN is not cached!
	GetByISBN(ctx context.Context, isbn string) (*types.Book, error)

	Save(ctx context.Context, book *types.Book) error

	ListRecent(ctx context.Context, limit uint) ([]*types.Book, error)
}
