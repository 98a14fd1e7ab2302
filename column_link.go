package jqgrid

import (
	"fmt"
	"sort"
	"strings"
)

// RouteURLFunc resolves a named route with parameters to an URL. The
// serving framework supplies it; the grid never builds route URLs itself.
type RouteURLFunc func(route string, params map[string]string) (string, error)

// Link renders the cell value wrapped in an anchor. Placeholders in the
// href template are substituted from row data through HrefParams, which
// maps each placeholder to the row key holding its value.
type Link struct {
	baseColumn

	Href       string
	HrefParams map[string]string
	Attributes map[string]string
}

func NewLink(name, identifier string) *Link {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchOperators = SearchOperatorsText

	return &Link{baseColumn: base}
}

func (c *Link) RenderValue(_ Adapter, row Row, cell *Cell) (string, error) {
	href, err := expandHref(c.name, c.Href, c.HrefParams, row)
	if err != nil {
		return "", err
	}

	return renderAnchor(href, c.Attributes, stringifyValue(cell.Value)), nil
}

// LinkRoute renders the cell value as an anchor whose href comes from a
// named route. A failing URL generator is tolerated: the plain value is
// rendered without the anchor.
type LinkRoute struct {
	baseColumn

	RouteName   string
	RouteParams map[string]string
	URL         RouteURLFunc
}

func NewLinkRoute(name, identifier string) *LinkRoute {
	base := newBaseColumn(name, identifier)
	base.attrs.SearchOperators = SearchOperatorsText

	return &LinkRoute{baseColumn: base}
}

func (c *LinkRoute) RenderValue(_ Adapter, row Row, cell *Cell) (string, error) {
	value := stringifyValue(cell.Value)

	if c.URL == nil {
		return "", renderErrorf("no route URL generator set for column %q", c.name)
	}

	params, err := resolveRouteParams(c.name, c.RouteParams, row)
	if err != nil {
		return "", err
	}

	href, err := c.URL(c.RouteName, params)
	if err != nil {
		return value, nil
	}

	return renderAnchor(href, nil, value), nil
}

// Button is one action rendered inside a Buttons column.
type Button interface {
	IsValid(adapter Adapter, row Row) bool
	Render(row Row) (string, error)
}

// Buttons renders a row of action buttons instead of a data value. The
// column is neither searchable nor sortable.
type Buttons struct {
	baseColumn

	Separator string
	buttons   []Button
}

func NewButtons(name string) *Buttons {
	base := newBaseColumn(name, name)
	base.attrs.Searchable = false
	base.attrs.Sortable = false

	return &Buttons{baseColumn: base, Separator: "&nbsp;"}
}

func (c *Buttons) AddButton(button Button) {
	c.buttons = append(c.buttons, button)
}

func (c *Buttons) RenderValue(adapter Adapter, row Row, _ *Cell) (string, error) {
	parts := make([]string, 0, len(c.buttons))

	for _, button := range c.buttons {
		if !button.IsValid(adapter, row) {
			continue
		}
		rendered, err := button.Render(row)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}

	return strings.Join(parts, c.Separator), nil
}

// LinkButton is a button with a templated href, substituted the same way
// as the Link column.
type LinkButton struct {
	Name       string
	Content    string
	Href       string
	HrefParams map[string]string
	Attributes map[string]string
	Conditions []Condition
}

func (b *LinkButton) IsValid(adapter Adapter, row Row) bool {
	return conditionsMatch(adapter, row, b.Conditions)
}

func (b *LinkButton) Render(row Row) (string, error) {
	href, err := expandHref(b.Name, b.Href, b.HrefParams, row)
	if err != nil {
		return "", err
	}

	return renderAnchor(href, b.Attributes, b.Content), nil
}

// RouteButton is a button whose href comes from a named route. Unlike
// LinkRoute there is no plain-value fallback: a failing generator aborts
// the render.
type RouteButton struct {
	Name        string
	Content     string
	RouteName   string
	RouteParams map[string]string
	Attributes  map[string]string
	Conditions  []Condition
	URL         RouteURLFunc
}

func (b *RouteButton) IsValid(adapter Adapter, row Row) bool {
	return conditionsMatch(adapter, row, b.Conditions)
}

func (b *RouteButton) Render(row Row) (string, error) {
	if b.URL == nil {
		return "", renderErrorf("no route URL generator set for button %q", b.Name)
	}

	params, err := resolveRouteParams(b.Name, b.RouteParams, row)
	if err != nil {
		return "", err
	}

	href, err := b.URL(b.RouteName, params)
	if err != nil {
		return "", renderErrorf("route %q for button %q: %v", b.RouteName, b.Name, err)
	}

	return renderAnchor(href, b.Attributes, b.Content), nil
}

func expandHref(owner, href string, params map[string]string, row Row) (string, error) {
	if href == "" {
		return "", renderErrorf("href is not set for %q", owner)
	}

	for placeholder, rowKey := range params {
		value, ok := row[rowKey]
		if !ok {
			return "", renderErrorf("key %q was not found in row data for %q", rowKey, owner)
		}
		href = strings.ReplaceAll(href, placeholder, stringifyValue(value))
	}

	return href, nil
}

func resolveRouteParams(owner string, params map[string]string, row Row) (map[string]string, error) {
	resolved := make(map[string]string, len(params))

	for name, rowKey := range params {
		value, ok := row[rowKey]
		if !ok {
			return nil, renderErrorf("key %q was not found in row data for %q", rowKey, owner)
		}
		resolved[name] = stringifyValue(value)
	}

	return resolved, nil
}

func renderAnchor(href string, attributes map[string]string, content string) string {
	var b strings.Builder

	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`"`)

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, ` %s="%s"`, name, attributes[name])
	}

	b.WriteString(">")
	b.WriteString(content)
	b.WriteString("</a>")

	return b.String()
}
