package jqgrid

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Group operators for combining filter predicates.
const (
	GroupOperatorAnd = "and"
	GroupOperatorOr  = "or"
)

// FilterRule is one (operator, value) pair requested for a column.
type FilterRule struct {
	Operator Operator
	Value    string
}

// Filters is the backend-agnostic representation of requested row
// filtering: rules grouped by column name, combined with a top-level
// and/or operator.
type Filters struct {
	Operator string
	Rules    map[string][]FilterRule
}

// Empty reports whether there is nothing to filter by.
func (f *Filters) Empty() bool {
	return f == nil || len(f.Rules) == 0
}

// wire shape posted by the grid widget:
// {"groupOp":"AND","rules":[{"field":"name","op":"cn","data":"foo"}]}
type wireFilters struct {
	GroupOp string     `json:"groupOp"`
	Rules   []wireRule `json:"rules"`
}

type wireRule struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Data  string `json:"data"`
}

// ParseFilters decodes the request-facing filter JSON. Unknown operator
// codes fail the whole request; an absent groupOp yields a nil Filters.
func ParseFilters(raw string) (*Filters, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var wire wireFilters
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, errors.Wrap(err, "decode filters")
	}

	return convertWireFilters(wire)
}

func convertWireFilters(wire wireFilters) (*Filters, error) {
	if wire.GroupOp == "" {
		return nil, nil
	}

	filters := &Filters{
		Operator: strings.ToLower(wire.GroupOp),
		Rules:    make(map[string][]FilterRule),
	}

	for _, rule := range wire.Rules {
		op, err := ParseOperator(rule.Op)
		if err != nil {
			return nil, err
		}

		filters.Rules[rule.Field] = append(filters.Rules[rule.Field], FilterRule{
			Operator: op,
			Value:    strings.TrimSpace(rule.Data),
		})
	}

	return filters, nil
}

// SortEntry is one requested ordering step.
type SortEntry struct {
	Column    string
	Direction string // SortOrderAsc or SortOrderDesc
}

// Sort is the ordered list of requested orderings, first entry having the
// highest priority.
type Sort []SortEntry

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)
