package jqgrid

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gnemet/jqgrid/database/exportcursor"
)

const exportBatchSize = 500

// ExportItem is one element of an export stream: a rendered row, or a
// terminal error. After an item with a non-nil Err the stream is over.
type ExportItem struct {
	Row RowData
	Err error
}

// ExportStream yields the full filtered result set row by row,
// independent of the grid's pagination. Total reports the filtered row
// count before any selection restriction is applied; Next returns items
// until the second value goes false. Each Export call produces a fresh
// stream; a stream is not resumable once it errors.
type ExportStream struct {
	total  int
	next   func() (ExportItem, bool)
	closer func()
}

func (s *ExportStream) Total() int { return s.total }

func (s *ExportStream) Next() (ExportItem, bool) { return s.next() }

// Close releases backing resources early. Draining the stream closes it
// as well.
func (s *ExportStream) Close() {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
}

// Export streams the filtered, sorted collection. A non-empty selection
// restricts the stream to rows whose id is listed.
func (a *SliceAdapter) Export(ctx context.Context, selection []string) (*ExportStream, error) {
	if !a.prepared {
		return nil, configErrorf("slice adapter is not prepared")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := a.filteredRows()
	if err != nil {
		return nil, err
	}
	a.sortRows(rows)

	stream := newSliceStream(selectRows(rows, selection))
	stream.total = len(rows)
	return stream, nil
}

func newSliceStream(rows []RowData) *ExportStream {
	idx := 0
	return &ExportStream{
		total: len(rows),
		next: func() (ExportItem, bool) {
			if idx >= len(rows) {
				return ExportItem{}, false
			}
			item := ExportItem{Row: rows[idx]}
			idx++
			return item, true
		},
	}
}

func selectRows(rows []RowData, selection []string) []RowData {
	if len(selection) == 0 {
		return rows
	}

	wanted := make(map[string]struct{}, len(selection))
	for _, id := range selection {
		wanted[id] = struct{}{}
	}

	out := make([]RowData, 0, len(rows))
	for _, row := range rows {
		if _, ok := wanted[row.ID]; ok {
			out = append(out, row)
		}
	}
	return out
}

// SetCursorPool enables cursor-backed exports; without a pool Export
// falls back to a single full query.
func (a *SelectAdapter) SetCursorPool(pool *exportcursor.Pool) {
	a.cursors = pool
}

// Export streams the full filtered result set, dropping the pagination
// window but keeping predicates and order. With a cursor pool attached
// rows are fetched in batches through a database cursor; otherwise the
// whole query runs at once.
func (a *SelectAdapter) Export(ctx context.Context, selection []string) (*ExportStream, error) {
	if !a.prepared {
		return nil, configErrorf("select adapter is not prepared")
	}

	exportQuery := *a.query
	exportQuery.ResetLimitOffset()

	total, err := a.queryCount(ctx)
	if err != nil {
		return nil, err
	}

	text, args, err := exportQuery.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build export query")
	}

	if a.cursors == nil {
		rows, err := a.db.QueryContext(ctx, text, args...)
		if err != nil {
			return nil, errors.Wrap(err, "execute export query")
		}
		raw, err := scanRows(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}

		rendered, err := renderRows(a, a.grid, raw, selectColumnKey)
		if err != nil {
			return nil, err
		}
		stream := newSliceStream(selectRows(rendered, selection))
		stream.total = total
		return stream, nil
	}

	cursorID, err := a.cursors.Open(ctx, text, args...)
	if err != nil {
		return nil, errors.Wrap(err, "open export cursor")
	}

	return a.newCursorStream(ctx, cursorID, total, selection), nil
}

// newCursorStream adapts batched cursor fetches to the one-row-at-a-time
// stream contract. A fetch or render failure surfaces as a terminal
// in-band item.
func (a *SelectAdapter) newCursorStream(ctx context.Context, cursorID string, total int, selection []string) *ExportStream {
	var (
		buffer  []RowData
		fetched int
		done    bool
	)

	release := func() {
		if !done {
			a.cursors.Release(cursorID)
			done = true
		}
	}

	stream := &ExportStream{total: total, closer: release}
	stream.next = func() (ExportItem, bool) {
		for {
			if len(buffer) > 0 {
				item := ExportItem{Row: buffer[0]}
				buffer = buffer[1:]
				return item, true
			}
			if done {
				return ExportItem{}, false
			}

			raw, err := a.cursors.Fetch(ctx, cursorID, exportBatchSize)
			if err != nil {
				release()
				return ExportItem{Err: errors.Wrap(err, "fetch export batch")}, true
			}
			if len(raw) == 0 {
				release()
				return ExportItem{}, false
			}

			batch := make([]Row, len(raw))
			for i, r := range raw {
				batch[i] = Row(r)
			}

			rendered, err := renderRowsFrom(a, a.grid, batch, selectColumnKey, fetched)
			if err != nil {
				release()
				return ExportItem{Err: err}, true
			}
			fetched += len(batch)
			buffer = selectRows(rendered, selection)
		}
	}

	return stream
}
