package jqgrid

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectToSQL(t *testing.T) {
	query := NewSelect("users", "id", "name").
		Where(sq.Eq{"name": "Anna"}).
		OrderBy("name", "asc").
		Limit(5).
		Offset(5)

	text, args, err := query.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE name = $1 ORDER BY name ASC LIMIT 5 OFFSET 5", text)
	assert.Equal(t, []interface{}{"Anna"}, args)
}

func TestSelectCountSQLStripsOrderAndPagination(t *testing.T) {
	query := NewSelect("users", "id", "name").
		Where(sq.Gt{"age": 30}).
		OrderBy("name", "desc").
		Limit(10).
		Offset(20)

	text, args, err := query.CountSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE age > $1", text)
	assert.Equal(t, []interface{}{30}, args)
}

func TestSelectCountSQLWrapsGroupedQuery(t *testing.T) {
	query := NewSelect("orders", "customer_id", "SUM(total) AS total").
		GroupBy("customer_id").
		Having(sq.Gt{"SUM(total)": 100})

	text, args, err := query.CountSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM (SELECT customer_id, SUM(total) AS total FROM orders GROUP BY customer_id HAVING SUM(total) > $1) AS c",
		text)
	assert.Equal(t, []interface{}{100}, args)
}

func TestSelectOrderStashAndReset(t *testing.T) {
	query := NewSelect("users", "id").OrderBy("created_at", "desc")

	stash := query.Order()
	require.Len(t, stash, 1)

	query.ResetOrder()
	assert.Empty(t, query.Order())

	query.OrderBy("name", "asc")
	for _, entry := range stash {
		query.OrderBy(entry.Expr, entry.Direction)
	}

	text, _, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "ORDER BY name ASC, created_at DESC")
}

func TestCombineToSQLMergesUnionArgsFirst(t *testing.T) {
	outer := NewSelect("%s AS u", "u.id", "u.name").Where(sq.Eq{"u.name": "x"})
	partA := NewSelect("a", "id", "name")
	partB := NewSelect("b", "id", "name").Where(sq.Eq{"deleted": false})

	combine := NewCombine(outer, partA, partB)

	text, args, err := combine.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT u.id, u.name FROM (SELECT id, name FROM a UNION SELECT id, name FROM b WHERE deleted = $1) AS u WHERE u.name = $2",
		text)
	assert.Equal(t, []interface{}{false, "x"}, args)
}

func TestCombineRequiresPlaceholder(t *testing.T) {
	combine := NewCombine(NewSelect("users", "id"), NewSelect("a", "id"))

	_, _, err := combine.ToSQL()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCombineRequiresParts(t *testing.T) {
	combine := NewCombine(NewSelect("%s AS u", "id"))

	_, _, err := combine.ToSQL()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestApplyPaginationIdempotent(t *testing.T) {
	grid := newParamGrid(t, map[string]string{"page": "2", "rows": "5"})
	query := NewSelect("users", "id")

	applyPagination(query, grid)
	first, _, err := query.ToSQL()
	require.NoError(t, err)

	applyPagination(query, grid)
	second, _, err := query.ToSQL()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "LIMIT 5 OFFSET 5")
}

func TestApplyPaginationFirstPage(t *testing.T) {
	grid := newParamGrid(t, map[string]string{"page": "1", "rows": "10"})
	query := NewSelect("users", "id")

	applyPagination(query, grid)

	text, _, err := query.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, text, "LIMIT 10")
	assert.NotContains(t, text, "OFFSET")
}

func newParamGrid(t *testing.T, params map[string]string) *Grid {
	t.Helper()

	grid, err := NewGrid(GridOptions{Name: "test"})
	require.NoError(t, err)
	require.NoError(t, grid.AddColumn(NewText("name", "name")))
	require.NoError(t, grid.SetParams(params))
	return grid
}
