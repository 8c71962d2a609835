package fails

import (
	"context"
	"time"
)

// Record is one exhausted metadata lookup: every provider in the chain was
// tried for the ISBN and none produced a book.
type Record struct {
	Id        uint64     `json:"id"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Isbn      string     `json:"isbn"`
	Error     string     `json:"error"`
}

type Repository interface {
	Save(ctx context.Context, startTime *time.Time, isbn string, err error) error

	GetFails(ctx context.Context, notAfter *time.Time, limit uint) ([]*Record, error)
	DeleteByIsbn(ctx context.Context, isbn string) error
}
