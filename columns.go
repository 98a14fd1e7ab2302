package jqgrid

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Text renders the raw value as-is, optionally applying a literal
// find/replace map.
type Text struct {
	baseColumn

	// Replace maps literal substrings to their replacements, applied in
	// key order.
	Replace map[string]string
}

func NewText(name, identifier string) *Text {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchOperators = SearchOperatorsText

	return &Text{baseColumn: base}
}

func (c *Text) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	value := stringifyValue(cell.Value)

	if len(c.Replace) == 0 {
		return value, nil
	}

	for _, from := range sortedKeys(c.Replace) {
		value = strings.ReplaceAll(value, from, c.Replace[from])
	}

	return value, nil
}

// Number renders a numeric value, optionally scaled: the multiplier is
// applied first, the divisor second, each with rounding to the nearest
// integer.
type Number struct {
	baseColumn

	Multiplier int
	Divisor    int
}

func NewNumber(name, identifier string) *Number {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchOperators = SearchOperatorsNumber

	return &Number{baseColumn: base}
}

func (c *Number) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	if c.Multiplier == 0 && c.Divisor == 0 {
		return stringifyValue(cell.Value), nil
	}

	value, _ := strconv.ParseFloat(strings.TrimSpace(stringifyValue(cell.Value)), 64)

	if c.Multiplier != 0 {
		value = math.Round(value * float64(c.Multiplier))
	}
	if c.Divisor != 0 {
		value = math.Round(value / float64(c.Divisor))
	}

	return strconv.FormatFloat(value, 'f', -1, 64), nil
}

// Boolean maps two canonical raw values to labels. Search is restricted
// to equality and rendered as a select with a blank "-" choice.
type Boolean struct {
	baseColumn

	TrueValue  string
	TrueLabel  string
	FalseValue string
	FalseLabel string

	// ReplaceValue disables the label mapping when false.
	ReplaceValue bool
}

func NewBoolean(name, identifier string) *Boolean {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchElement = SearchElementSelect
	base.attrs.SearchOperators = SearchOperatorsBoolean

	return &Boolean{baseColumn: base, ReplaceValue: true}
}

func (c *Boolean) Init() error {
	c.attrs.SearchValues = map[string]string{
		"":           "-",
		c.TrueValue:  c.TrueLabel,
		c.FalseValue: c.FalseLabel,
	}
	return nil
}

func (c *Boolean) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	value := stringifyValue(cell.Value)

	if !c.ReplaceValue {
		return value, nil
	}

	switch value {
	case c.TrueValue:
		return c.TrueLabel, nil
	case c.FalseValue:
		return c.FalseLabel, nil
	}

	return value, nil
}

// Date carries format metadata for a date column; the value itself is
// normalized by the adapter before rendering, so the render step is a
// pass-through.
type Date struct {
	baseColumn
}

func NewDate(name, identifier string) *Date {
	base := newBaseColumn(name, identifier)
	base.attrs.Format = FormatDate
	base.attrs.FormatOptions = map[string]string{
		"srcformat": "Y-m-d",
		"newformat": "d.m.Y",
	}
	base.attrs.SearchOperators = SearchOperatorsDate

	return &Date{baseColumn: base}
}

func (c *Date) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	return stringifyValue(cell.Value), nil
}

// DateTime is Date with a time component.
type DateTime struct {
	baseColumn

	showSeconds bool
}

func NewDateTime(name, identifier string) *DateTime {
	base := newBaseColumn(name, identifier)
	base.attrs.Format = FormatDate
	base.attrs.SearchOperators = SearchOperatorsDate

	c := &DateTime{baseColumn: base, showSeconds: true}
	c.applyFormatOptions()

	return c
}

func (c *DateTime) SetShowSeconds(show bool) {
	c.showSeconds = show
	c.applyFormatOptions()
}

func (c *DateTime) applyFormatOptions() {
	newFormat := "d.m.Y - H:i"
	if c.showSeconds {
		newFormat = "d.m.Y - H:i:s"
	}
	c.attrs.FormatOptions = map[string]string{
		"srcformat": "Y-m-d H:i:s",
		"newformat": newFormat,
	}
}

func (c *DateTime) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	return stringifyValue(cell.Value), nil
}

// Options maps arbitrary discrete raw values to labels through a required
// caller-supplied map.
type Options struct {
	baseColumn

	Values map[string]string

	// ReplaceValue disables the label mapping when false.
	ReplaceValue bool
}

func NewOptions(name, identifier string) *Options {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchElement = SearchElementSelect
	base.attrs.SearchOperators = SearchOperatorsOptions

	return &Options{baseColumn: base, ReplaceValue: true}
}

func (c *Options) Init() error {
	if c.Values == nil {
		return configErrorf("options for column %q are not set", c.name)
	}

	searchValues := map[string]string{"": "-"}
	for value, label := range c.Values {
		searchValues[value] = label
	}
	c.attrs.SearchValues = searchValues

	return nil
}

func (c *Options) RenderValue(_ Adapter, _ Row, cell *Cell) (string, error) {
	value := stringifyValue(cell.Value)

	if !c.ReplaceValue {
		return value, nil
	}

	if label, ok := c.Values[value]; ok {
		return label, nil
	}

	return value, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
