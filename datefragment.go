package jqgrid

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Locale carries the pieces of locale configuration the grid needs to
// interpret user-typed date filters.
type Locale struct {
	// ShortDatePattern is the CLDR-style short date pattern of the active
	// locale, e.g. "dd.MM.yyyy", "M/d/yyyy" or "yyyy-MM-dd". It decides
	// the field order and the separator of partial date inputs.
	ShortDatePattern string
}

// DefaultLocale matches the day-first dotted format the grid was
// historically used with.
var DefaultLocale = Locale{ShortDatePattern: "dd.MM.yyyy"}

var dateSeparators = []string{".", "/", "-", " "}

// ConvertLocaleDateToDBDate turns a free-text, possibly partial date value
// ("24.12.", "12.2014", "2014") into a normalized YYYY-MM-DD-shaped
// fragment with only the recognized components populated: "-12-24" when
// only month and day are known, "2014-" when only the year is. The
// fragment is substituted into the filter predicate in place of the raw
// value. A value that matches none of the partial forms still lands in
// the locale's second calendar field, mirroring how these filters have
// always behaved.
func ConvertLocaleDateToDBDate(locale Locale, value string) string {
	pattern := locale.ShortDatePattern
	if pattern == "" {
		pattern = DefaultLocale.ShortDatePattern
	}

	separator := ""
	for _, sep := range dateSeparators {
		if strings.Index(pattern, sep) > 0 {
			separator = sep
			break
		}
	}
	if separator == "" {
		return value
	}

	firstChar := strings.ToLower(pattern[:1])
	dayLeads := firstChar == "d" || firstChar == "j"
	yearLeads := firstChar == "y"

	// first/second name the calendar fields in locale order; partial
	// forms like "24.12" fill them positionally.
	first, second := "month", "day"
	if dayLeads {
		first, second = "day", "month"
	}

	fields := map[string]string{}
	sep := regexp.QuoteMeta(separator)

	if t, ok := parseFullDate(pattern, value); ok {
		fields["day"] = fmt.Sprintf("%02d", t.Day())
		fields["month"] = fmt.Sprintf("%02d", int(t.Month()))
		fields["year"] = fmt.Sprintf("%d", t.Year())
	} else if m := matchFirst(value,
		`^`+sep+`\d{1,2}`+sep+`\d{4}$`,
		`^\d{1,2}`+sep+`\d{4}$`,
	); m != "" {
		// ".12.2014" or "12.2014"
		parts := strings.Split(strings.Trim(m, separator), separator)
		fields[second], fields["year"] = parts[0], parts[1]
	} else if m := matchFirst(value,
		`^\d{1,2}`+sep+`\d{1,2}`+sep+`$`,
		`^\d{1,2}`+sep+`\d{1,2}$`,
	); m != "" {
		// "24.12." or "24.12"
		parts := strings.Split(strings.Trim(m, separator), separator)
		fields[first], fields[second] = parts[0], parts[1]
	} else if m := matchFirst(value, `^\d{4}$`); m != "" {
		// "2014"
		fields["year"] = m
	} else if m := matchFirst(value,
		`^`+sep+`\d{1,2}`+sep+`$`,
		`^`+sep+`\d{1,2}$`,
	); m != "" {
		// ".12." or ".12"
		if yearLeads {
			fields[first] = strings.Trim(m, separator)
		} else {
			fields[second] = strings.Trim(m, separator)
		}
	} else if m := matchFirst(value, `^\d{1,2}`+sep+`$`); m != "" {
		// "24."
		if yearLeads {
			fields[second] = strings.Trim(m, separator)
		} else {
			fields[first] = strings.Trim(m, separator)
		}
	} else if t, err := dateparse.ParseStrict(value); err == nil {
		fields["day"] = fmt.Sprintf("%02d", t.Day())
		fields["month"] = fmt.Sprintf("%02d", int(t.Month()))
		fields["year"] = fmt.Sprintf("%d", t.Year())
	} else {
		fields[second] = strings.TrimSpace(value)
	}

	return buildDateFragment(fields)
}

// parseFullDate tries the locale pattern as an exact layout. The layout is
// derived non-padded so both "4.1.2014" and "04.01.2014" parse.
func parseFullDate(pattern, value string) (time.Time, bool) {
	layout := pattern
	for _, r := range []struct{ from, to string }{
		{"yyyy", "2006"},
		{"yy", "06"},
		{"MM", "1"},
		{"M", "1"},
		{"dd", "2"},
		{"d", "2"},
	} {
		layout = strings.ReplaceAll(layout, r.from, r.to)
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func matchFirst(value string, patterns ...string) string {
	for _, p := range patterns {
		if regexp.MustCompile(p).MatchString(value) {
			return value
		}
	}
	return ""
}

// buildDateFragment assembles the recognized components, replacing missing
// leading components with an empty segment.
func buildDateFragment(fields map[string]string) string {
	var b strings.Builder

	year, hasYear := fields["year"]
	month, hasMonth := fields["month"]
	day, hasDay := fields["day"]

	if hasYear {
		b.WriteString(year)
		b.WriteString("-")
	}
	if hasMonth {
		if !hasYear {
			b.WriteString("-")
		}
		b.WriteString(padDateField(month))
		b.WriteString("-")
	}
	if hasDay {
		if !hasYear && !hasMonth {
			b.WriteString("-")
		}
		b.WriteString(padDateField(day))
	}

	return b.String()
}

func padDateField(v string) string {
	for len(v) < 2 {
		v = "0" + v
	}
	return v
}
