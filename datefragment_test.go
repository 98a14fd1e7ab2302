package jqgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertLocaleDateToDBDate(t *testing.T) {
	dayFirst := Locale{ShortDatePattern: "dd.MM.yyyy"}
	monthFirst := Locale{ShortDatePattern: "M/d/yyyy"}
	yearFirst := Locale{ShortDatePattern: "yyyy-MM-dd"}

	tests := []struct {
		name   string
		locale Locale
		value  string
		want   string
	}{
		{"full date", dayFirst, "24.12.2014", "2014-12-24"},
		{"full date non-padded", dayFirst, "4.1.2014", "2014-01-04"},
		{"day and month with trailing separator", dayFirst, "24.12.", "-12-24"},
		{"day and month", dayFirst, "24.12", "-12-24"},
		{"month and year", dayFirst, "12.2014", "2014-12-"},
		{"month and year with leading separator", dayFirst, ".12.2014", "2014-12-"},
		{"bare year", dayFirst, "2014", "2014-"},
		{"bare month", dayFirst, ".12.", "-12-"},
		{"bare day", dayFirst, "24.", "-24"},
		{"month first full date", monthFirst, "12/24/2014", "2014-12-24"},
		{"month first partial", monthFirst, "12/24", "-12-24"},
		{"year first partial day", yearFirst, "24-", "-24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertLocaleDateToDBDate(tt.locale, tt.value))
		})
	}
}

func TestConvertLocaleDateEmptyPatternFallsBack(t *testing.T) {
	got := ConvertLocaleDateToDBDate(Locale{}, "24.12.")
	assert.Equal(t, "-12-24", got)
}
