package books

import (
	"context"
	"errors"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookimg/internal/types"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxBook struct {
	Isbn        string `db:"isbn"`
	Title       string `db:"title"`
	Author      string `db:"author"`
	Year        *int   `db:"year"`
	Pages       *int   `db:"pages"`
	Description string `db:"description"`
}

func (b *pgxBook) intoCommon() *types.Book {
	return &types.Book{
		Isbn:        b.Isbn,
		Title:       b.Title,
		Author:      b.Author,
		Year:        b.Year,
		Pages:       b.Pages,
		Description: b.Description,
	}
}

func (p *pgxRepo) GetByISBN(ctx context.Context, isbn string) (*types.Book, error) {
	sql, params, err := p.g.From("book").
		Select("isbn", "title", "author", "year", "pages", "description").
		Where(goqu.C("isbn").Eq(isbn)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) Save(ctx context.Context, book *types.Book) error {
	sql, params, err := p.g.Insert("book").
		Rows(goqu.Record{
			"isbn":        book.Isbn,
			"title":       book.Title,
			"author":      book.Author,
			"year":        book.Year,
			"pages":       book.Pages,
			"description": book.Description,
			"updated_at":  goqu.L("now()"),
		}).
		OnConflict(goqu.DoUpdate("isbn", map[string]any{
			"title":       goqu.L("excluded.title"),
			"author":      goqu.L("excluded.author"),
			"year":        goqu.L("excluded.year"),
			"pages":       goqu.L("excluded.pages"),
			"description": goqu.L("excluded.description"),
			"updated_at":  goqu.L("excluded.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) ListRecent(ctx context.Context, limit uint) ([]*types.Book, error) {
	sql, params, err := p.g.From("book").
		Select("isbn", "title", "author", "year", "pages", "description").
		Order(goqu.C("updated_at").Desc()).
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBook

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}
