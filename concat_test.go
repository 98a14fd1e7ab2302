package jqgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		values  map[int]string
		want    string
	}{
		{
			name:    "all resolved",
			pattern: "%s0 %s1",
			values:  map[int]string{0: "X", 1: "Y"},
			want:    "X Y",
		},
		{
			name:    "partially resolved",
			pattern: "%s0 %s1",
			values:  map[int]string{0: "X"},
			want:    "X",
		},
		{
			name:    "nothing resolved",
			pattern: "%s0 %s1",
			values:  map[int]string{},
			want:    "",
		},
		{
			name:    "optional group resolved",
			pattern: "%s0 (%s1)",
			values:  map[int]string{0: "Anna", 1: "Smith"},
			want:    "Anna (Smith)",
		},
		{
			name:    "optional group collapses",
			pattern: "%s0 (%s1)",
			values:  map[int]string{0: "Anna"},
			want:    "Anna",
		},
		{
			name:    "inseparable span keeps resolved side",
			pattern: "%s0{, }%s1",
			values:  map[int]string{0: "Anna", 1: "Smith"},
			want:    "Anna, Smith",
		},
		{
			name:    "inseparable span survives one resolved neighbor",
			pattern: "%s0{, }%s1",
			values:  map[int]string{0: "Anna"},
			want:    "Anna,",
		},
		{
			name:    "inseparable span drops when no neighbor resolved",
			pattern: "%s0 %s1{, }%s2",
			values:  map[int]string{0: "Anna"},
			want:    "Anna",
		},
		{
			name:    "nested optional groups",
			pattern: "%s0 (%s1 (%s2))",
			values:  map[int]string{0: "A", 1: "B"},
			want:    "A (B)",
		},
		{
			name:    "empty value counts as unresolved",
			pattern: "%s0 %s1",
			values:  map[int]string{0: "X", 1: ""},
			want:    "X",
		},
		{
			name:    "whitespace squeezed",
			pattern: "%s0  %s1   %s2",
			values:  map[int]string{0: "a", 2: "c"},
			want:    "a c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluatePattern(tt.pattern, tt.values))
		})
	}
}
