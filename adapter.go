package jqgrid

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Adapter feeds a Grid from a backing source. Prepare binds the grid and
// compiles its current parameters; it is idempotent. FetchData recomputes
// the result on every call so a changed source is always re-read.
type Adapter interface {
	Prepare(grid *Grid) error
	FetchData(ctx context.Context) (*Result, error)
	FindValue(identifier string, row Row) interface{}
	CountOfItems() int
	CountOfItemsTotal() int
	NumberOfPages() int
}

// Exporter is implemented by adapters that can stream the full filtered
// result set row by row, independent of pagination.
type Exporter interface {
	Export(ctx context.Context, selection []string) (*ExportStream, error)
}

// Result is one page of grid data.
type Result struct {
	Rows              []RowData
	CountOfItems      int
	CountOfItemsTotal int
	UserData          map[string]interface{}
}

// RowData is a single rendered row: one display string per column name,
// plus the row identifier when the grid names an ID column.
type RowData struct {
	ID    string
	Cells map[string]string
}

const dateTimeLayout = "2006-01-02 15:04:05"

var cellPlaceholderRe = regexp.MustCompile(`%(_?[a-zA-Z0-9\._\-]+)%`)

// renderRows runs the shared row pipeline: validity check, value lookup
// through keyFn, temporal normalization, RenderValue, and the placeholder
// substitution pass. keyFn decides which column attribute addresses the
// raw value, which differs between relational and in-memory sources.
func renderRows(adapter Adapter, grid *Grid, rows []Row, keyFn func(Column) string) ([]RowData, error) {
	return renderRowsFrom(adapter, grid, rows, keyFn, 0)
}

// renderRowsFrom renders rows with row indexes starting at first, so batched
// callers keep a continuous %_index% numbering across batches.
func renderRowsFrom(adapter Adapter, grid *Grid, rows []Row, keyFn func(Column) string, first int) ([]RowData, error) {
	out := make([]RowData, 0, len(rows))

	for i, row := range rows {
		idx := first + i
		cells := make(map[string]string, len(grid.Columns()))

		for _, col := range grid.Columns() {
			var rendered string

			if col.IsValid(adapter, row) {
				cell := &Cell{
					Value: normalizeTemporal(adapter.FindValue(keyFn(col), row)),
					Index: idx,
				}

				var err error
				rendered, err = col.RenderValue(adapter, row, cell)
				if err != nil {
					return nil, errors.Wrapf(err, "render column %q", col.Name())
				}
			}

			cells[col.Name()] = rendered
		}

		for name, value := range cells {
			cells[name] = substitutePlaceholders(value, adapter, grid, keyFn, row, idx)
		}

		var id string
		if rowID := grid.Options.RowIDColumn; rowID != "" {
			id = stringifyValue(adapter.FindValue(rowID, row))
		}

		out = append(out, RowData{ID: id, Cells: cells})
	}

	return out, nil
}

// substitutePlaceholders replaces %key% tokens in a rendered cell.
// %_index% resolves to the zero-based row index within the page; a key
// naming a grid column resolves through that column's field lookup, any
// other key is tried against the raw row. Unresolvable tokens stay
// untouched.
func substitutePlaceholders(value string, adapter Adapter, grid *Grid, keyFn func(Column) string, row Row, index int) string {
	if !strings.Contains(value, "%") {
		return value
	}

	return cellPlaceholderRe.ReplaceAllStringFunc(value, func(token string) string {
		key := token[1 : len(token)-1]
		if key == "_index" {
			return strconv.Itoa(index)
		}
		if col, ok := grid.Column(key); ok {
			return stringifyValue(normalizeTemporal(adapter.FindValue(keyFn(col), row)))
		}
		if raw, ok := row[key]; ok {
			return stringifyValue(normalizeTemporal(raw))
		}
		return token
	})
}

// normalizeTemporal flattens time values to the canonical database text
// form so every column variant sees the same representation.
func normalizeTemporal(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateTimeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(dateTimeLayout)
	default:
		return v
	}
}

// findValueByPath resolves an identifier against nested row data. Dotted
// and underscored forms are tried segment by segment; when a segment
// lands on a list of maps the lookup fans out and returns the collected
// values as a list.
func findValueByPath(identifier string, row Row) interface{} {
	if value, ok := row[identifier]; ok {
		return value
	}

	for _, sep := range []string{".", "_"} {
		if !strings.Contains(identifier, sep) {
			continue
		}
		if value, ok := walkPath(strings.Split(identifier, sep), row); ok {
			return value
		}
	}

	return nil
}

func walkPath(segments []string, node interface{}) (interface{}, bool) {
	if len(segments) == 0 {
		return node, true
	}

	switch v := node.(type) {
	case map[string]interface{}:
		return walkMapPath(segments, v)
	case []interface{}:
		collected := make([]interface{}, 0, len(v))
		for _, item := range v {
			if value, ok := walkPath(segments, item); ok {
				collected = append(collected, value)
			}
		}
		if len(collected) == 0 {
			return nil, false
		}
		return collected, true
	default:
		return nil, false
	}
}

func walkMapPath(segments []string, m map[string]interface{}) (interface{}, bool) {
	// Greedy: longer joined prefixes win, so "user_name" prefers the
	// literal "user_name" key over nested row["user"]["name"].
	for take := len(segments); take >= 1; take-- {
		key := strings.Join(segments[:take], "_")
		child, ok := m[key]
		if !ok {
			continue
		}
		if value, found := walkPath(segments[take:], child); found {
			return value, true
		}
	}
	return nil, false
}

// scanRows reads every row of a result set into generic maps, converting
// byte slices to strings.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read result columns")
	}

	var out []Row

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}

	return out, nil
}

// numberOfPages derives the page count from a total; a grid always has
// at least one page.
func numberOfPages(total, rowsPerPage int) int {
	if rowsPerPage <= 0 || total <= 0 {
		return 1
	}
	pages := (total + rowsPerPage - 1) / rowsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}
