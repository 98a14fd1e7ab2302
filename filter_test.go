package jqgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	raw := `{"groupOp":"AND","rules":[
		{"field":"name","op":"cn","data":" foo "},
		{"field":"name","op":"eq","data":"bar"},
		{"field":"age","op":"ge","data":"30"}
	]}`

	filters, err := ParseFilters(raw)
	require.NoError(t, err)
	require.NotNil(t, filters)

	assert.Equal(t, GroupOperatorAnd, filters.Operator)
	require.Len(t, filters.Rules["name"], 2)
	assert.Equal(t, OperatorContains, filters.Rules["name"][0].Operator)
	assert.Equal(t, "foo", filters.Rules["name"][0].Value)
	assert.Equal(t, OperatorEqual, filters.Rules["name"][1].Operator)
	require.Len(t, filters.Rules["age"], 1)
	assert.Equal(t, OperatorGreaterOrEqual, filters.Rules["age"][0].Operator)
	assert.False(t, filters.Empty())
}

func TestParseFiltersUnknownOperator(t *testing.T) {
	_, err := ParseFilters(`{"groupOp":"OR","rules":[{"field":"name","op":"zz","data":"x"}]}`)
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestParseFiltersEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", `{"rules":[]}`} {
		filters, err := ParseFilters(raw)
		require.NoError(t, err)
		assert.True(t, filters.Empty())
	}
}

func TestParseFiltersMalformedJSON(t *testing.T) {
	_, err := ParseFilters(`{"groupOp":`)
	assert.Error(t, err)
}
