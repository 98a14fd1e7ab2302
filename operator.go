package jqgrid

import (
	"github.com/pkg/errors"
)

// Operator is a canonical filter operator. The string value is the symbol
// used in persisted filter rules; the two-letter wire code used by the
// client widget is translated through ParseOperator and Operator.Code.
type Operator string

const (
	OperatorEqual          Operator = "="
	OperatorNotEqual       Operator = "!="
	OperatorLess           Operator = "<"
	OperatorLessOrEqual    Operator = "<="
	OperatorGreater        Operator = ">"
	OperatorGreaterOrEqual Operator = ">="
	OperatorBeginsWith     Operator = "^"
	OperatorNotBeginsWith  Operator = "!^"
	OperatorEndsWith       Operator = "$"
	OperatorNotEndsWith    Operator = "!$"
	OperatorContains       Operator = "~"
	OperatorNotContains    Operator = "!~"
	OperatorIn             Operator = "|"
	OperatorNotIn          Operator = "!|"
)

var operatorByCode = map[string]Operator{
	"eq": OperatorEqual,
	"ne": OperatorNotEqual,
	"lt": OperatorLess,
	"le": OperatorLessOrEqual,
	"gt": OperatorGreater,
	"ge": OperatorGreaterOrEqual,
	"bw": OperatorBeginsWith,
	"bn": OperatorNotBeginsWith,
	"in": OperatorIn,
	"ni": OperatorNotIn,
	"ew": OperatorEndsWith,
	"en": OperatorNotEndsWith,
	"cn": OperatorContains,
	"nc": OperatorNotContains,
}

var codeByOperator = func() map[Operator]string {
	m := make(map[Operator]string, len(operatorByCode))
	for code, op := range operatorByCode {
		m[op] = code
	}
	return m
}()

// ParseOperator translates a two-letter wire code ("eq", "cn", ...) to its
// canonical operator. Unknown codes fail the request.
func ParseOperator(code string) (Operator, error) {
	op, ok := operatorByCode[code]
	if !ok {
		return "", errors.Wrapf(ErrInvalidOperator, "unknown code %q", code)
	}
	return op, nil
}

// Code translates the operator back to its two-letter wire code.
func (o Operator) Code() (string, error) {
	code, ok := codeByOperator[o]
	if !ok {
		return "", errors.Wrapf(ErrInvalidOperator, "unknown operator %q", string(o))
	}
	return code, nil
}

// Per-column-type search operator whitelists, expressed as wire codes the
// way the client widget expects them.
var (
	SearchOperatorsText    = []string{"cn", "nc", "eq", "ne", "bw", "bn", "ew", "en"}
	SearchOperatorsNumber  = []string{"cn", "nc", "eq", "ne", "lt", "le", "gt", "ge"}
	SearchOperatorsDate    = []string{"cn", "nc", "eq", "ne", "lt", "le", "gt", "ge", "bw", "bn", "ew", "en"}
	SearchOperatorsBoolean = []string{"eq"}
	SearchOperatorsOptions = []string{"eq", "ne"}
)
