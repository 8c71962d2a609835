package fails

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxRecord struct {
	Id        uint64     `db:"id"`
	StartTime *time.Time `db:"start_time"`
	Isbn      string     `db:"isbn"`
	Error     string     `db:"error"`
}

func (p *pgxRepo) Save(ctx context.Context, startTime *time.Time, isbn string, err error) error {
	sql, params, err := p.g.Insert("fail").
		Rows(goqu.Record{
			"start_time": startTime,
			"isbn":       isbn,
			"error":      err.Error(),
		}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) GetFails(ctx context.Context, notAfter *time.Time, limit uint) ([]*Record, error) {
	sql, params, err := p.g.From("fail").
		Where(goqu.C("start_time").Lte(notAfter)).
		Order(goqu.C("start_time").Desc()).
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxRecord

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*Record, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &Record{
			Id:        row.Id,
			StartTime: row.StartTime,
			Isbn:      row.Isbn,
			Error:     row.Error,
		})
	}

	return ret, nil
}

func (p *pgxRepo) DeleteByIsbn(ctx context.Context, isbn string) error {
	sql, params, err := p.g.Delete("fail").
		Where(goqu.C("isbn").Eq(isbn)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}
