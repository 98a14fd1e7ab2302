package jqgrid

import "strings"

// Concat is a virtual column composed from several source identifiers
// through a pattern template. It carries no storage of its own; adapters
// translate it to a SQL CONCAT expression or evaluate the pattern per
// row in memory.
type Concat struct {
	baseColumn

	options ConcatOptions
}

func NewConcat(name string, options ConcatOptions) *Concat {
	base := newBaseColumn(name, name)
	base.attrs.SearchOperators = SearchOperatorsText

	return &Concat{baseColumn: base, options: options}
}

// Composite exposes the concat recipe so adapters can detect composite
// columns by capability instead of by concrete type.
func (c *Concat) Composite() *ConcatOptions {
	return &c.options
}

// RenderValue evaluates the pattern against the source identifiers. When
// an identifier resolves to a list, the column fans out: one pattern
// evaluation per list index, joined with the separator.
func (c *Concat) RenderValue(adapter Adapter, row Row, _ *Cell) (string, error) {
	groups := make([]map[int]string, 0, 1)

	for idx, identifier := range c.options.Identifiers {
		raw := adapter.FindValue(identifier, row)
		if raw == nil {
			continue
		}

		values, ok := raw.([]interface{})
		if !ok {
			values = []interface{}{raw}
		}

		for pos, item := range values {
			for len(groups) <= pos {
				groups = append(groups, make(map[int]string))
			}
			groups[pos][idx] = stringifyValue(normalizeTemporal(item))
		}
	}

	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, EvaluatePattern(c.options.Pattern, group))
	}

	return strings.Join(parts, c.options.Separator), nil
}
