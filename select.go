package jqgrid

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// OrderEntry is one ORDER BY term.
type OrderEntry struct {
	Expr      string
	Direction string
}

// Select is a thin query description rendered through squirrel. Unlike
// squirrel's own builder it keeps the ORDER BY list readable and
// resettable, which the grid needs to splice the requested sort in front
// of the configured default order.
type Select struct {
	columns []string
	from    string
	where   []sq.Sqlizer
	having  []sq.Sqlizer
	groupBy []string
	order   []OrderEntry

	limit    uint64
	offset   uint64
	hasLimit bool
}

func NewSelect(from string, columns ...string) *Select {
	return &Select{from: from, columns: columns}
}

func (s *Select) Columns(columns ...string) *Select {
	s.columns = append(s.columns, columns...)
	return s
}

func (s *Select) From() string { return s.from }

func (s *Select) Where(pred sq.Sqlizer) *Select {
	s.where = append(s.where, pred)
	return s
}

func (s *Select) Having(pred sq.Sqlizer) *Select {
	s.having = append(s.having, pred)
	return s
}

func (s *Select) GroupBy(exprs ...string) *Select {
	s.groupBy = append(s.groupBy, exprs...)
	return s
}

func (s *Select) OrderBy(expr, direction string) *Select {
	s.order = append(s.order, OrderEntry{Expr: expr, Direction: direction})
	return s
}

// Order returns a copy of the current ORDER BY entries.
func (s *Select) Order() []OrderEntry {
	out := make([]OrderEntry, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Select) ResetOrder() *Select {
	s.order = nil
	return s
}

func (s *Select) Limit(n uint64) *Select {
	s.limit = n
	s.hasLimit = true
	return s
}

func (s *Select) Offset(n uint64) *Select {
	s.offset = n
	return s
}

func (s *Select) ResetLimitOffset() *Select {
	s.limit, s.offset, s.hasLimit = 0, 0, false
	return s
}

// ToSQL renders the query with $N placeholders.
func (s *Select) ToSQL() (string, []interface{}, error) {
	text, args, err := s.toQuestionSQL()
	if err != nil {
		return "", nil, err
	}
	return toDollar(text, args)
}

// CountSQL renders a COUNT(*) variant sharing the predicates but not the
// order or pagination. Grouped and HAVING queries are counted through a
// subquery so the count reflects result rows, not source rows.
func (s *Select) CountSQL() (string, []interface{}, error) {
	text, args, err := s.toQuestionCountSQL()
	if err != nil {
		return "", nil, err
	}
	return toDollar(text, args)
}

func (s *Select) toQuestionSQL() (string, []interface{}, error) {
	b := sq.Select(s.columns...).From(s.from).PlaceholderFormat(sq.Question)

	for _, pred := range s.where {
		b = b.Where(pred)
	}
	for _, pred := range s.having {
		b = b.Having(pred)
	}
	if len(s.groupBy) > 0 {
		b = b.GroupBy(s.groupBy...)
	}
	for _, entry := range s.order {
		expr := entry.Expr
		if entry.Direction != "" {
			expr += " " + strings.ToUpper(entry.Direction)
		}
		b = b.OrderBy(expr)
	}
	if s.hasLimit {
		b = b.Limit(s.limit)
		if s.offset > 0 {
			b = b.Offset(s.offset)
		}
	}

	return b.ToSql()
}

func (s *Select) toQuestionCountSQL() (string, []interface{}, error) {
	if len(s.groupBy) > 0 || len(s.having) > 0 {
		inner := *s
		inner.order = nil
		inner.hasLimit = false
		inner.offset = 0

		text, args, err := inner.toQuestionSQL()
		if err != nil {
			return "", nil, err
		}
		return "SELECT COUNT(*) FROM (" + text + ") AS c", args, nil
	}

	b := sq.Select("COUNT(*)").From(s.from).PlaceholderFormat(sq.Question)
	for _, pred := range s.where {
		b = b.Where(pred)
	}
	return b.ToSql()
}

// Combine is a UNION of sub-selects wrapped in an outer select. The
// outer FROM clause must contain the combinePlaceholder token, which is
// replaced with the rendered union at build time.
type Combine struct {
	outer *Select
	parts []*Select
}

const combinePlaceholder = "%s"

func NewCombine(outer *Select, parts ...*Select) *Combine {
	return &Combine{outer: outer, parts: parts}
}

func (c *Combine) Outer() *Select { return c.outer }

func (c *Combine) Add(part *Select) *Combine {
	c.parts = append(c.parts, part)
	return c
}

func (c *Combine) ToSQL() (string, []interface{}, error) {
	text, args, err := c.toQuestionSQL(false)
	if err != nil {
		return "", nil, err
	}
	return toDollar(text, args)
}

func (c *Combine) CountSQL() (string, []interface{}, error) {
	text, args, err := c.toQuestionSQL(true)
	if err != nil {
		return "", nil, err
	}
	return toDollar(text, args)
}

func (c *Combine) toQuestionSQL(count bool) (string, []interface{}, error) {
	if len(c.parts) == 0 {
		return "", nil, configErrorf("combine query has no sub-selects")
	}
	if !strings.Contains(c.outer.From(), combinePlaceholder) {
		return "", nil, configErrorf("combine outer query lacks the %s union placeholder", combinePlaceholder)
	}

	partTexts := make([]string, 0, len(c.parts))
	var partArgs []interface{}

	for _, part := range c.parts {
		text, args, err := part.toQuestionSQL()
		if err != nil {
			return "", nil, err
		}
		partTexts = append(partTexts, text)
		partArgs = append(partArgs, args...)
	}
	union := "(" + strings.Join(partTexts, " UNION ") + ")"

	var (
		outerText string
		outerArgs []interface{}
		err       error
	)
	if count {
		outerText, outerArgs, err = c.outer.toQuestionCountSQL()
	} else {
		outerText, outerArgs, err = c.outer.toQuestionSQL()
	}
	if err != nil {
		return "", nil, err
	}

	// The union text lands in the FROM clause, ahead of every outer
	// predicate, so its arguments come first.
	outerText = strings.Replace(outerText, combinePlaceholder, union, 1)
	return outerText, append(partArgs, outerArgs...), nil
}

func toDollar(text string, args []interface{}) (string, []interface{}, error) {
	converted, err := sq.Dollar.ReplacePlaceholders(text)
	if err != nil {
		return "", nil, err
	}
	return converted, args, nil
}
