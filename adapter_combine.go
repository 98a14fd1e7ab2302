package jqgrid

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// CombineAdapter feeds a grid from a UNION of sub-selects. Filter, sort,
// and pagination compilation applies to the outer select; the union is
// substituted into its FROM clause when the SQL is rendered.
type CombineAdapter struct {
	db    *sql.DB
	query *Combine

	grid     *Grid
	prepared bool

	countOfItems      int
	countOfItemsTotal int
}

func NewCombineAdapter(db *sql.DB, query *Combine) *CombineAdapter {
	return &CombineAdapter{db: db, query: query}
}

func (a *CombineAdapter) Prepare(grid *Grid) error {
	if a.prepared {
		return nil
	}
	if a.query == nil {
		return configErrorf("combine adapter requires a query")
	}
	if grid == nil {
		return configErrorf("combine adapter requires a grid")
	}
	a.grid = grid

	if err := grid.Prepare(); err != nil {
		return err
	}

	filters, err := grid.Filters()
	if err != nil {
		return err
	}

	outer := a.query.Outer()
	if err := applyFilters(outer, grid, filters); err != nil {
		return err
	}
	applyPagination(outer, grid)
	applySortings(outer, grid)

	a.prepared = true
	return nil
}

func (a *CombineAdapter) FetchData(ctx context.Context) (*Result, error) {
	if !a.prepared {
		return nil, configErrorf("combine adapter is not prepared")
	}

	text, args, err := a.query.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build union query")
	}

	rows, err := a.db.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, errors.Wrap(err, "execute union query")
	}
	raw, err := scanRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	countText, countArgs, err := a.query.CountSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build union count query")
	}
	var total int
	if err := a.db.QueryRowContext(ctx, countText, countArgs...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "execute union count query")
	}

	rendered, err := renderRows(a, a.grid, raw, selectColumnKey)
	if err != nil {
		return nil, err
	}

	a.countOfItems = len(rendered)
	a.countOfItemsTotal = total

	return &Result{
		Rows:              rendered,
		CountOfItems:      a.countOfItems,
		CountOfItemsTotal: a.countOfItemsTotal,
	}, nil
}

func (a *CombineAdapter) FindValue(identifier string, row Row) interface{} {
	return row[identifier]
}

func (a *CombineAdapter) CountOfItems() int      { return a.countOfItems }
func (a *CombineAdapter) CountOfItemsTotal() int { return a.countOfItemsTotal }

func (a *CombineAdapter) NumberOfPages() int {
	return numberOfPages(a.countOfItemsTotal, a.grid.RecordsPerPage())
}
