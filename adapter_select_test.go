package jqgrid

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterJSON(groupOp string, rules ...string) string {
	out := `{"groupOp":"` + groupOp + `","rules":[`
	for i, r := range rules {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out + `]}`
}

func newSelectGrid(t *testing.T, params map[string]string) *Grid {
	t.Helper()

	grid, err := NewGrid(GridOptions{Name: "people", RowIDColumn: "id"})
	require.NoError(t, err)

	id := NewNumber("id", "id")
	require.NoError(t, grid.AddColumns(id, NewText("name", "p.name"), NewNumber("age", "p.age")))
	require.NoError(t, grid.SetParams(params))
	return grid
}

func TestSelectAdapterEmptyFiltersLeaveQueryUntouched(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{"rows": "10", "page": "1"})
	query := NewSelect("people p", "p.id AS id", "p.name AS name", "p.age AS age")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.NotContains(t, text, "WHERE")
	assert.NotContains(t, text, "HAVING")
	assert.Empty(t, args)
}

func TestSelectAdapterPrepareIsIdempotent(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{"rows": "10", "page": "2"})
	query := NewSelect("people p", "p.id AS id")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))
	first, _, err := query.ToSQL()
	require.NoError(t, err)

	require.NoError(t, adapter.Prepare(grid))
	second, _, err := query.ToSQL()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSelectAdapterRequiresQuery(t *testing.T) {
	grid := newSelectGrid(t, nil)

	adapter := NewSelectAdapter(nil, nil)
	assert.ErrorIs(t, adapter.Prepare(grid), ErrConfiguration)
}

func TestSelectAdapterContainsTokenization(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("AND", `{"field":"name","op":"cn","data":"foo bar foo"}`),
	})
	query := NewSelect("people p", "p.name AS name")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "(p.name LIKE $1 OR p.name LIKE $2)")
	assert.Equal(t, []interface{}{"%foo%", "%bar%"}, args)
}

func TestSelectAdapterNotContainsTokensCombineWithAnd(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("AND", `{"field":"name","op":"nc","data":"foo bar"}`),
	})
	query := NewSelect("people p", "p.name AS name")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "(p.name NOT LIKE $1 AND p.name NOT LIKE $2)")
	assert.Equal(t, []interface{}{"%foo%", "%bar%"}, args)
}

func TestSelectAdapterSameColumnRulesCombineWithOr(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("AND",
			`{"field":"name","op":"eq","data":"Anna"}`,
			`{"field":"name","op":"eq","data":"Ben"}`),
	})
	query := NewSelect("people p", "p.name AS name")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "(p.name = $1 OR p.name = $2)")
	assert.Equal(t, []interface{}{"Anna", "Ben"}, args)
}

func TestSelectAdapterCrossColumnGroupOperator(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("OR",
			`{"field":"name","op":"eq","data":"Anna"}`,
			`{"field":"age","op":"ge","data":"30"}`),
	})
	query := NewSelect("people p", "p.name AS name", "p.age AS age")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "(p.name = $1 OR p.age >= $2)")
	assert.Equal(t, []interface{}{"Anna", "30"}, args)
}

func TestSelectAdapterHavingRouting(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("AND", `{"field":"age","op":"gt","data":"30"}`),
	})
	col, ok := grid.Column("age")
	require.True(t, ok)
	col.Attrs().SearchDomain = SearchDomainHaving

	query := NewSelect("people p", "p.age AS age").GroupBy("p.age")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "HAVING p.age > $1")
	assert.NotContains(t, text, "WHERE")
	assert.Equal(t, []interface{}{"30"}, args)
}

func TestSelectAdapterInOperatorSplitsList(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{
		"filters": filterJSON("AND", `{"field":"name","op":"in","data":"Anna, Ben"}`),
	})
	query := NewSelect("people p", "p.name AS name")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "p.name IN ($1,$2)")
	assert.Equal(t, []interface{}{"Anna", "Ben"}, args)
}

func TestSelectAdapterConcatFilterExpression(t *testing.T) {
	grid, err := NewGrid(GridOptions{Name: "contacts"})
	require.NoError(t, err)
	require.NoError(t, grid.AddColumn(NewConcat("fullname", ConcatOptions{
		Identifiers: []string{"firstname", "lastname"},
		Pattern:     "%s0 %s1",
		Separator:   ", ",
	})))
	require.NoError(t, grid.SetParams(map[string]string{
		"filters": filterJSON("AND", `{"field":"fullname","op":"cn","data":"Anna"}`),
	}))

	query := NewSelect("contacts", "firstname", "lastname")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text,
		"CONCAT(CASE WHEN firstname IS NULL THEN '' ELSE firstname END, ' ', CASE WHEN lastname IS NULL THEN '' ELSE lastname END) LIKE $1")
	assert.Equal(t, []interface{}{"%Anna%"}, args)
}

func TestSelectAdapterSortSplicing(t *testing.T) {
	grid := newSelectGrid(t, map[string]string{"sidx": "name", "sord": "desc"})
	query := NewSelect("people p", "p.name AS name").OrderBy("p.id", "asc")

	adapter := NewSelectAdapter(nil, query)
	require.NoError(t, adapter.Prepare(grid))

	text, _, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "ORDER BY p.name DESC, p.id ASC")
}

func TestSelectAdapterFetchData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	grid := newSelectGrid(t, map[string]string{"rows": "10", "page": "1"})
	query := NewSelect("people p", "p.id AS id", "p.name AS name", "p.age AS age")

	adapter := NewSelectAdapter(db, query)
	require.NoError(t, adapter.Prepare(grid))

	dataSQL, _, err := query.ToSQL()
	require.NoError(t, err)
	countSQL, _, err := query.CountSQL()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(dataSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(1, "Anna", 30).
			AddRow(2, "Ben", 41))
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(12))

	result, err := adapter.FetchData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.CountOfItems)
	assert.Equal(t, 12, result.CountOfItemsTotal)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "1", result.Rows[0].ID)
	assert.Equal(t, "Anna", result.Rows[0].Cells["name"])
	assert.Equal(t, "Ben", result.Rows[1].Cells["name"])

	assert.Equal(t, 2, adapter.CountOfItems())
	assert.Equal(t, 12, adapter.CountOfItemsTotal())
	assert.Equal(t, 2, adapter.NumberOfPages())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectAdapterFetchDataRequiresPrepare(t *testing.T) {
	adapter := NewSelectAdapter(nil, NewSelect("people", "id"))

	_, err := adapter.FetchData(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
}
