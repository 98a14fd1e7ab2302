package jqgrid

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one raw data row as produced by an adapter's backend: column
// values keyed by field name, possibly with nested rows for to-many
// relations.
type Row = map[string]interface{}

// Cell is the per-row render context handed to a column. It replaces the
// mutable per-column scratch value the grid historically used, so columns
// stay stateless across rows and requests.
type Cell struct {
	// Value is the raw value extracted for the column, already normalized
	// (temporal values as "2006-01-02 15:04:05" strings).
	Value interface{}

	// Index is the zero-based index of the row within the current page.
	Index int
}

// Column formats, gates and describes one output field of the grid.
type Column interface {
	// Name is the output key, unique within a grid.
	Name() string

	// Identifier is the source field path the column reads from. Several
	// columns may share an identifier.
	Identifier() string

	Attrs() *Attrs
	Conditions() []Condition

	// Init runs once per request before the first render.
	Init() error

	// IsValid evaluates the column's conditions against the row data.
	IsValid(adapter Adapter, row Row) bool

	// RenderValue maps the extracted raw value plus row context to the
	// display value.
	RenderValue(adapter Adapter, row Row, cell *Cell) (string, error)
}

// Composite is implemented by columns whose value spans multiple
// underlying identifiers. Adapters branch on this capability instead of
// on concrete column types.
type Composite interface {
	Composite() *ConcatOptions
}

// Search domains: whether a column's filter predicate belongs in the
// WHERE or the HAVING clause.
const (
	SearchDomainWhere  = "where"
	SearchDomainHaving = "having"
)

// Search UI elements.
const (
	SearchElementText   = "text"
	SearchElementSelect = "select"
)

// Format kinds.
const (
	FormatDate     = "date"
	FormatCurrency = "currency"
)

// Summary aggregation kinds.
const (
	SummarySum   = "sum"
	SummaryMin   = "min"
	SummaryMax   = "max"
	SummaryCount = "count"
)

// Attrs holds the display/search/sort attributes shared by all column
// variants.
type Attrs struct {
	Label  string
	Align  string
	Width  int
	Hidden bool
	Frozen bool

	Searchable bool
	Sortable   bool

	// SearchOperators whitelists the wire codes offered for this column.
	SearchOperators []string

	// SearchGroupOperator combines multiple tokens of one contains rule:
	// "and", "or", or empty for the operator-dependent default (contains
	// combines with OR, not-contains with AND).
	SearchGroupOperator string

	// SearchDomain routes the compiled predicate (WHERE vs HAVING).
	SearchDomain string

	SearchElement string
	SearchValues  map[string]string

	Format        string
	FormatOptions map[string]string

	// SummaryType enables the footer summary row: "sum", "min", "max" or
	// "count".
	SummaryType string

	// Extra carries per-column client widget options passed through to
	// the grid script verbatim.
	Extra map[string]interface{}
}

func defaultAttrs() Attrs {
	return Attrs{
		Searchable:    true,
		Sortable:      true,
		SearchDomain:  SearchDomainWhere,
		SearchElement: SearchElementText,
	}
}

// Condition gates a column (or button) on row data, independent of the
// request filters; it is never compiled into a query.
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
}

// Matches evaluates the condition against a row value.
func (c Condition) Matches(value interface{}) bool {
	switch c.Operator {
	case OperatorIn:
		list, ok := c.Value.([]interface{})
		if !ok {
			if strs, sok := c.Value.([]string); sok {
				for _, s := range strs {
					list = append(list, s)
				}
			} else {
				return false
			}
		}
		for _, item := range list {
			if looseEqual(value, item) {
				return true
			}
		}
		return false
	case OperatorEqual:
		return looseEqual(value, c.Value)
	case OperatorNotEqual:
		return !looseEqual(value, c.Value)
	case OperatorGreater:
		return compareLoose(value, c.Value) > 0
	case OperatorGreaterOrEqual:
		return compareLoose(value, c.Value) >= 0
	case OperatorLess:
		return compareLoose(value, c.Value) < 0
	case OperatorLessOrEqual:
		return compareLoose(value, c.Value) <= 0
	}

	// Operators outside the condition vocabulary never gate anything.
	return true
}

// baseColumn carries the state common to all column variants.
type baseColumn struct {
	name       string
	identifier string
	attrs      Attrs
	conditions []Condition
}

func newBaseColumn(name, identifier string) baseColumn {
	if identifier == "" {
		identifier = name
	}
	return baseColumn{
		name:       name,
		identifier: identifier,
		attrs:      defaultAttrs(),
	}
}

func (c *baseColumn) Name() string            { return c.name }
func (c *baseColumn) Identifier() string      { return c.identifier }
func (c *baseColumn) Attrs() *Attrs           { return &c.attrs }
func (c *baseColumn) Conditions() []Condition { return c.conditions }

func (c *baseColumn) SetIdentifier(identifier string) { c.identifier = identifier }

func (c *baseColumn) AddCondition(cond Condition) {
	c.conditions = append(c.conditions, cond)
}

func (c *baseColumn) Init() error { return nil }

// IsValid AND-combines all conditions; a column without conditions is
// always valid.
func (c *baseColumn) IsValid(adapter Adapter, row Row) bool {
	return conditionsMatch(adapter, row, c.conditions)
}

func conditionsMatch(adapter Adapter, row Row, conditions []Condition) bool {
	for _, cond := range conditions {
		if !cond.Matches(adapter.FindValue(cond.Column, row)) {
			return false
		}
	}
	return true
}

// stringifyValue renders a raw value the way the grid output expects it:
// nil as empty, byte slices as text, floats without exponent notation.
func stringifyValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case []interface{}:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, stringifyValue(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", value)
	}
}

// looseEqual compares two values numerically when both parse as numbers,
// otherwise as strings.
func looseEqual(a, b interface{}) bool {
	return compareLoose(a, b) == 0
}

func compareLoose(a, b interface{}) int {
	as, bs := stringifyValue(a), stringifyValue(b)

	af, aerr := strconv.ParseFloat(strings.TrimSpace(as), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(bs), 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(as, bs)
}
