package jqgrid

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/gnemet/jqgrid/database/exportcursor"
)

// SelectAdapter feeds a grid from a single relational query. Prepare
// compiles the grid's filter, sort, and pagination parameters into the
// query; FetchData executes it together with a COUNT(*) twin sharing
// the predicates.
type SelectAdapter struct {
	db      *sql.DB
	query   *Select
	cursors *exportcursor.Pool

	grid     *Grid
	prepared bool

	countOfItems      int
	countOfItemsTotal int
}

func NewSelectAdapter(db *sql.DB, query *Select) *SelectAdapter {
	return &SelectAdapter{db: db, query: query}
}

func (a *SelectAdapter) Prepare(grid *Grid) error {
	if a.prepared {
		return nil
	}
	if a.query == nil {
		return configErrorf("select adapter requires a query")
	}
	if grid == nil {
		return configErrorf("select adapter requires a grid")
	}
	a.grid = grid

	if err := grid.Prepare(); err != nil {
		return err
	}

	filters, err := grid.Filters()
	if err != nil {
		return err
	}
	if err := applyFilters(a.query, grid, filters); err != nil {
		return err
	}
	applyPagination(a.query, grid)
	applySortings(a.query, grid)

	a.prepared = true
	return nil
}

func (a *SelectAdapter) FetchData(ctx context.Context) (*Result, error) {
	if !a.prepared {
		return nil, configErrorf("select adapter is not prepared")
	}

	raw, err := a.queryRows(ctx)
	if err != nil {
		return nil, err
	}

	total, err := a.queryCount(ctx)
	if err != nil {
		return nil, err
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

func (a *SelectAdapter) queryRows(ctx context.Context) ([]Row, error) {
	text, args, err := a.query.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build data query")
	}

	rows, err := a.db.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, errors.Wrap(err, "execute data query")
	}
	defer rows.Close()

	return scanRows(rows)
}

func (a *SelectAdapter) queryCount(ctx context.Context) (int, error) {
	text, args, err := a.query.CountSQL()
	if err != nil {
		return 0, errors.Wrap(err, "build count query")
	}

	var total int
	if err := a.db.QueryRowContext(ctx, text, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "execute count query")
	}
	return total, nil
}

// FindValue reads a flat result-row field; relational rows carry the
// projected aliases directly.
func (a *SelectAdapter) FindValue(identifier string, row Row) interface{} {
	return row[identifier]
}

func (a *SelectAdapter) CountOfItems() int      { return a.countOfItems }
func (a *SelectAdapter) CountOfItemsTotal() int { return a.countOfItemsTotal }

func (a *SelectAdapter) NumberOfPages() int {
	return numberOfPages(a.countOfItemsTotal, a.grid.RecordsPerPage())
}

// selectColumnKey: relational adapters address the rendered value by the
// column's output name, which matches the projection alias.
func selectColumnKey(col Column) string { return col.Name() }

// applyFilters compiles the filter set into WHERE and HAVING predicate
// trees on the query. Rules on the same column combine with OR; columns
// combine with the requested top-level operator.
func applyFilters(query *Select, grid *Grid, filters *Filters) error {
	if filters == nil || filters.Empty() {
		return nil
	}

	var wherePreds, havingPreds []sq.Sqlizer

	for _, col := range grid.Columns() {
		attrs := col.Attrs()
		if !attrs.Searchable || attrs.Hidden {
			continue
		}

		rules := filters.Rules[col.Name()]
		if len(rules) == 0 {
			continue
		}

		var colPreds []sq.Sqlizer
		for _, rule := range rules {
			pred, err := compileRule(grid, col, rule)
			if err != nil {
				return err
			}
			if pred != nil {
				colPreds = append(colPreds, pred)
			}
		}
		if len(colPreds) == 0 {
			continue
		}

		combined := combinePredicates(GroupOperatorOr, colPreds)
		if attrs.SearchDomain == SearchDomainHaving {
			havingPreds = append(havingPreds, combined)
		} else {
			wherePreds = append(wherePreds, combined)
		}
	}

	if len(wherePreds) > 0 {
		query.Where(combinePredicates(filters.Operator, wherePreds))
	}
	if len(havingPreds) > 0 {
		query.Having(combinePredicates(filters.Operator, havingPreds))
	}
	return nil
}

// compileRule turns one filter rule into a predicate over the column's
// identifier, or over a NULL-safe CONCAT expression for composite
// columns. Contains and not-contains values are tokenized on whitespace
// with order-preserving de-duplication.
func compileRule(grid *Grid, col Column, rule FilterRule) (sq.Sqlizer, error) {
	op := Operator(rule.Operator)

	expr := col.Identifier()
	if comp, ok := col.(Composite); ok {
		expr = concatExpression(comp.Composite())
	}

	value := rule.Value
	if col.Attrs().Format == FormatDate && value != "" {
		value = ConvertLocaleDateToDBDate(grid.Options.Locale, value)
	}

	tokens := []string{value}
	tokenized := op == OperatorContains || op == OperatorNotContains
	if tokenized {
		tokens = dedupTokens(strings.Fields(value))
		if len(tokens) == 0 {
			return nil, nil
		}
	}

	preds := make([]sq.Sqlizer, 0, len(tokens))
	for _, token := range tokens {
		pred, err := operatorPredicate(expr, op, token)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	return combinePredicates(tokenGroupOperator(col, op), preds), nil
}

// tokenGroupOperator picks how multiple tokens of one rule combine: the
// column's configured group operator wins; otherwise contains defaults
// to OR and not-contains to AND.
func tokenGroupOperator(col Column, op Operator) string {
	if groupOp := col.Attrs().SearchGroupOperator; groupOp != "" {
		return groupOp
	}
	if op == OperatorNotContains {
		return GroupOperatorAnd
	}
	return GroupOperatorOr
}

func combinePredicates(groupOp string, preds []sq.Sqlizer) sq.Sqlizer {
	if len(preds) == 1 {
		return preds[0]
	}
	if strings.EqualFold(groupOp, GroupOperatorAnd) {
		return sq.And(preds)
	}
	return sq.Or(preds)
}

func operatorPredicate(expr string, op Operator, value string) (sq.Sqlizer, error) {
	switch op {
	case OperatorEqual:
		return sq.Eq{expr: value}, nil
	case OperatorNotEqual:
		return sq.NotEq{expr: value}, nil
	case OperatorLess:
		return sq.Lt{expr: value}, nil
	case OperatorLessOrEqual:
		return sq.LtOrEq{expr: value}, nil
	case OperatorGreater:
		return sq.Gt{expr: value}, nil
	case OperatorGreaterOrEqual:
		return sq.GtOrEq{expr: value}, nil
	case OperatorBeginsWith:
		return sq.Like{expr: value + "%"}, nil
	case OperatorNotBeginsWith:
		return sq.NotLike{expr: value + "%"}, nil
	case OperatorEndsWith:
		return sq.Like{expr: "%" + value}, nil
	case OperatorNotEndsWith:
		return sq.NotLike{expr: "%" + value}, nil
	case OperatorContains:
		return sq.Like{expr: "%" + value + "%"}, nil
	case OperatorNotContains:
		return sq.NotLike{expr: "%" + value + "%"}, nil
	case OperatorIn:
		return sq.Eq{expr: splitList(value)}, nil
	case OperatorNotIn:
		return sq.NotEq{expr: splitList(value)}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidOperator, "operator %q", string(op))
	}
}

// splitList turns a comma-separated value into the list form IN expects.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func dedupTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// concatExpression builds the searchable SQL form of a composite column:
// every identifier NULL-coalesced to '' and concatenated with single
// spaces. Identifiers come from grid configuration, never from request
// input.
func concatExpression(opts *ConcatOptions) string {
	parts := make([]string, 0, len(opts.Identifiers))
	for _, identifier := range opts.Identifiers {
		parts = append(parts, "CASE WHEN "+identifier+" IS NULL THEN '' ELSE "+identifier+" END")
	}
	return "CONCAT(" + strings.Join(parts, ", ' ', ") + ")"
}

// applyPagination sets LIMIT/OFFSET from the grid's page and page size.
// A non-positive page size disables pagination. Reapplying with the same
// parameters yields the same window.
func applyPagination(query *Select, grid *Grid) {
	rows := grid.RecordsPerPage()
	if rows <= 0 {
		return
	}

	offset := rows*grid.CurrentPage() - rows
	if offset < 0 {
		offset = 0
	}

	query.Limit(uint64(rows)).Offset(uint64(offset))
}

// applySortings splices the requested sort in front of the query's own
// default order: the default is stashed, the order reset, request
// entries appended, and the default re-appended last. Composite columns
// expand to every underlying identifier ascending regardless of the
// requested direction.
func applySortings(query *Select, grid *Grid) {
	defaultOrder := query.Order()
	query.ResetOrder()

	for _, entry := range grid.Sort() {
		col, ok := grid.Column(entry.Column)
		if !ok {
			continue
		}

		if comp, isComposite := col.(Composite); isComposite {
			for _, identifier := range comp.Composite().Identifiers {
				query.OrderBy(identifier, SortOrderAsc)
			}
			continue
		}

		query.OrderBy(col.Identifier(), entry.Direction)
	}

	for _, entry := range defaultOrder {
		query.OrderBy(entry.Expr, entry.Direction)
	}
}
