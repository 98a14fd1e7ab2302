package jqgrid

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SliceAdapter feeds a grid from an in-memory collection. Every row is
// rendered up front and filtering, sorting, and pagination run over the
// rendered display values.
type SliceAdapter struct {
	data []Row

	grid     *Grid
	prepared bool

	countOfItems      int
	countOfItemsTotal int
}

func NewSliceAdapter(data []Row) *SliceAdapter {
	return &SliceAdapter{data: data}
}

func (a *SliceAdapter) Prepare(grid *Grid) error {
	if a.prepared {
		return nil
	}
	if grid == nil {
		return configErrorf("slice adapter requires a grid")
	}
	a.grid = grid

	if err := grid.Prepare(); err != nil {
		return err
	}

	a.prepared = true
	return nil
}

func (a *SliceAdapter) FetchData(ctx context.Context) (*Result, error) {
	if !a.prepared {
		return nil, configErrorf("slice adapter is not prepared")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filtered, err := a.filteredRows()
	if err != nil {
		return nil, err
	}

	a.countOfItemsTotal = len(filtered)

	a.sortRows(filtered)

	var userData map[string]interface{}
	if a.grid.Options.UserDataOnFooter {
		userData = a.summarize(filtered)
	}

	paged := paginateSlice(filtered, a.grid.RecordsPerPage(), a.grid.CurrentPage())
	a.countOfItems = len(paged)

	return &Result{
		Rows:              paged,
		CountOfItems:      a.countOfItems,
		CountOfItemsTotal: a.countOfItemsTotal,
		UserData:          userData,
	}, nil
}

// filteredRows renders the whole collection and drops every row failing
// any filter rule. Unlike the relational adapters the rules combine with
// AND across the board, whatever the requested group operator says; the
// behavior is kept for compatibility with existing grids.
func (a *SliceAdapter) filteredRows() ([]RowData, error) {
	rendered, err := renderRows(a, a.grid, a.data, sliceColumnKey)
	if err != nil {
		return nil, err
	}

	filters, err := a.grid.Filters()
	if err != nil {
		return nil, err
	}
	if filters.Empty() {
		return rendered, nil
	}

	out := make([]RowData, 0, len(rendered))
	for _, row := range rendered {
		keep, err := a.rowMatches(row, filters)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func (a *SliceAdapter) rowMatches(row RowData, filters *Filters) (bool, error) {
	for _, col := range a.grid.Columns() {
		attrs := col.Attrs()
		if !attrs.Searchable || attrs.Hidden {
			continue
		}

		rules := filters.Rules[col.Name()]
		if len(rules) == 0 {
			continue
		}

		rendered := row.Cells[col.Name()]

		for _, rule := range rules {
			value := rule.Value
			if attrs.Format == FormatDate && value != "" {
				value = ConvertLocaleDateToDBDate(a.grid.Options.Locale, value)
			}

			var matched bool
			if _, isComposite := col.(Composite); isComposite {
				matched = compositeMatches(rendered, value)
			} else {
				var err error
				matched, err = matchRule(rendered, Operator(rule.Operator), value)
				if err != nil {
					return false, err
				}
			}

			if !matched {
				return false, nil
			}
		}
	}
	return true, nil
}

// compositeMatches checks a filter value against the concatenated
// display string as a case-insensitive regular expression; a value that
// does not compile is matched literally instead.
func compositeMatches(rendered, value string) bool {
	re, err := regexp.Compile("(?i)" + value)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(value))
	}
	return re.MatchString(rendered)
}

// matchRule compares a rendered display value against one rule. The in
// and notIn operators are not implemented for in-memory data and accept
// every row.
func matchRule(rendered string, op Operator, value string) (bool, error) {
	switch op {
	case OperatorEqual:
		return looseEqual(rendered, value), nil
	case OperatorNotEqual:
		return !looseEqual(rendered, value), nil
	case OperatorLess:
		return compareLoose(rendered, value) < 0, nil
	case OperatorLessOrEqual:
		return compareLoose(rendered, value) <= 0, nil
	case OperatorGreater:
		return compareLoose(rendered, value) > 0, nil
	case OperatorGreaterOrEqual:
		return compareLoose(rendered, value) >= 0, nil
	case OperatorBeginsWith:
		return hasPrefixFold(rendered, value), nil
	case OperatorNotBeginsWith:
		return !hasPrefixFold(rendered, value), nil
	case OperatorEndsWith:
		return hasSuffixFold(rendered, value), nil
	case OperatorNotEndsWith:
		return !hasSuffixFold(rendered, value), nil
	case OperatorContains:
		return containsFold(rendered, value), nil
	case OperatorNotContains:
		return !containsFold(rendered, value), nil
	case OperatorIn, OperatorNotIn:
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidOperator, "operator %q", string(op))
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
}

// sortRows applies a stable multi-key sort over rendered values, first
// requested column most significant.
func (a *SliceAdapter) sortRows(rows []RowData) {
	sortEntries := a.grid.Sort()
	if len(sortEntries) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, entry := range sortEntries {
			cmp := compareLoose(rows[i].Cells[entry.Column], rows[j].Cells[entry.Column])
			if cmp == 0 {
				continue
			}
			if entry.Direction == SortOrderDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// summarize aggregates over the filtered, pre-pagination rows. The
// "count" kind computes sum divided by row count; existing grids depend
// on that, so it stays.
func (a *SliceAdapter) summarize(rows []RowData) map[string]interface{} {
	userData := make(map[string]interface{})

	for _, col := range a.grid.Columns() {
		kind := col.Attrs().SummaryType
		if kind == "" || len(rows) == 0 {
			continue
		}

		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			v, err := strconv.ParseFloat(strings.TrimSpace(row.Cells[col.Name()]), 64)
			if err != nil {
				v = 0
			}
			values = append(values, v)
		}

		var result float64
		switch kind {
		case SummarySum:
			for _, v := range values {
				result += v
			}
		case SummaryMin:
			result = values[0]
			for _, v := range values[1:] {
				if v < result {
					result = v
				}
			}
		case SummaryMax:
			result = values[0]
			for _, v := range values[1:] {
				if v > result {
					result = v
				}
			}
		case SummaryCount:
			var sum float64
			for _, v := range values {
				sum += v
			}
			result = sum / float64(len(values))
		default:
			continue
		}

		userData[col.Name()] = result
	}

	return userData
}

func paginateSlice(rows []RowData, rowsPerPage, page int) []RowData {
	if rowsPerPage <= 0 {
		return rows
	}

	offset := rowsPerPage*page - rowsPerPage
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []RowData{}
	}

	end := offset + rowsPerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// FindValue resolves dotted and underscored identifier paths against the
// nested source row, fanning out over one-to-many sub-rows.
func (a *SliceAdapter) FindValue(identifier string, row Row) interface{} {
	return findValueByPath(identifier, row)
}

func (a *SliceAdapter) CountOfItems() int      { return a.countOfItems }
func (a *SliceAdapter) CountOfItemsTotal() int { return a.countOfItemsTotal }

func (a *SliceAdapter) NumberOfPages() int {
	return numberOfPages(a.countOfItemsTotal, a.grid.RecordsPerPage())
}

// sliceColumnKey: in-memory rows are addressed by source identifier, not
// by output name.
func sliceColumnKey(col Column) string { return col.Identifier() }
