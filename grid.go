package jqgrid

import (
	"strconv"
	"strings"
	"sync"
)

// GridOptions configures a grid instance. Zero values fall back to the
// documented defaults in NewGrid.
type GridOptions struct {
	// Name identifies the grid in requests and in Storage. Required.
	Name string

	DefaultPage    int
	RecordsPerPage int

	// RecordsPerPageList, when set, whitelists the page sizes a request
	// may pick; anything else falls back to RecordsPerPage.
	RecordsPerPageList []int

	DefaultSortColumn string
	DefaultSortOrder  string

	// RowIDColumn names the source field whose value becomes the row id
	// in the response. Empty means positional ids.
	RowIDColumn string

	UserDataOnFooter bool

	Locale Locale
}

// Grid holds an ordered, name-unique column registry plus the request
// parameters that drive one prepare/fetch cycle. Column registration and
// storage wiring happen at setup time; the request-scoped state (params,
// prepared) is safe for concurrent requests sharing one grid.
type Grid struct {
	Options GridOptions

	columns []Column
	byName  map[string]Column

	storage Storage

	// mu guards params and prepared.
	mu     sync.RWMutex
	params map[string]string

	prepared bool
}

func NewGrid(options GridOptions) (*Grid, error) {
	if options.Name == "" {
		return nil, configErrorf("grid name is not set")
	}
	if options.DefaultPage <= 0 {
		options.DefaultPage = 1
	}
	if options.RecordsPerPage <= 0 {
		options.RecordsPerPage = 15
	}
	if options.Locale.ShortDatePattern == "" {
		options.Locale = DefaultLocale
	}
	if options.DefaultSortOrder == "" {
		options.DefaultSortOrder = SortOrderAsc
	}

	return &Grid{
		Options: options,
		byName:  make(map[string]Column),
		storage: NewMemoryStorage(),
	}, nil
}

func (g *Grid) Name() string { return g.Options.Name }

func (g *Grid) SetStorage(storage Storage) {
	g.storage = storage
}

func (g *Grid) AddColumn(col Column) error {
	name := col.Name()
	if name == "" {
		return configErrorf("column name is not set")
	}
	if _, exists := g.byName[name]; exists {
		return configErrorf("column %q is already registered", name)
	}

	g.columns = append(g.columns, col)
	g.byName[name] = col
	return nil
}

func (g *Grid) AddColumns(cols ...Column) error {
	for _, col := range cols {
		if err := g.AddColumn(col); err != nil {
			return err
		}
	}
	return nil
}

// Columns returns the registry in registration order.
func (g *Grid) Columns() []Column { return g.columns }

func (g *Grid) Column(name string) (Column, bool) {
	col, ok := g.byName[name]
	return col, ok
}

// Prepare runs each column's Init hook once. Re-entry is a no-op.
func (g *Grid) Prepare() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.prepared {
		return nil
	}

	for _, col := range g.columns {
		if err := col.Init(); err != nil {
			return err
		}
	}

	g.prepared = true
	return nil
}

func (g *Grid) CanFetchData() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.prepared
}

// SetParams takes the request's query parameters and persists them. A
// request addressed to a different grid (its _name parameter does not
// match) leaves the stored parameters untouched. A changed filter resets
// the page back to the first one.
func (g *Grid) SetParams(params map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.storedParams()

	if name, ok := params["_name"]; ok && name != g.Options.Name {
		g.params = current
		return nil
	}

	if filters, ok := params["filters"]; ok && filters != current["filters"] {
		current["page"] = "1"
	}
	for _, key := range []string{"filters", "page", "rows", "sidx", "sord"} {
		if value, ok := params[key]; ok {
			current[key] = value
		}
	}

	g.params = current
	return g.storage.Write(g.Options.Name, current)
}

// storedParams is called with mu held.
func (g *Grid) storedParams() map[string]string {
	if g.params != nil {
		return g.params
	}
	if g.storage != nil && g.storage.Exists(g.Options.Name) {
		if stored, err := g.storage.Read(g.Options.Name); err == nil {
			return stored
		}
	}
	return map[string]string{}
}

func (g *Grid) Param(name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	value, ok := g.storedParams()[name]
	return value, ok
}

func (g *Grid) HasParam(name string) bool {
	_, ok := g.Param(name)
	return ok
}

// ClearParams drops the persisted request state.
func (g *Grid) ClearParams() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.params = nil
	return g.storage.Clear(g.Options.Name)
}

func (g *Grid) CurrentPage() int {
	if raw, ok := g.Param("page"); ok {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			return page
		}
	}
	return g.Options.DefaultPage
}

// RecordsPerPage resolves the requested page size, constrained to the
// configured whitelist when one is set.
func (g *Grid) RecordsPerPage() int {
	raw, ok := g.Param("rows")
	if !ok {
		return g.Options.RecordsPerPage
	}

	rows, err := strconv.Atoi(raw)
	if err != nil {
		return g.Options.RecordsPerPage
	}

	if len(g.Options.RecordsPerPageList) > 0 {
		for _, allowed := range g.Options.RecordsPerPageList {
			if rows == allowed {
				return rows
			}
		}
		return g.Options.RecordsPerPage
	}

	return rows
}

// Filters decodes the persisted filter wire JSON; an absent or blank
// parameter yields an empty filter set.
func (g *Grid) Filters() (*Filters, error) {
	raw, ok := g.Param("filters")
	if !ok || strings.TrimSpace(raw) == "" {
		return &Filters{}, nil
	}
	return ParseFilters(raw)
}

// Sort resolves the requested sort. The sidx parameter may carry several
// "column direction" entries separated by commas; the last entry takes
// its direction from sord. Entries naming unknown, unsortable, or hidden
// columns are dropped. Without a request sort the configured default
// applies.
func (g *Grid) Sort() Sort {
	sidx, _ := g.Param("sidx")
	sidx = strings.TrimSpace(sidx)

	if sidx == "" {
		if g.Options.DefaultSortColumn != "" {
			return Sort{{Column: g.Options.DefaultSortColumn, Direction: g.Options.DefaultSortOrder}}
		}
		return nil
	}

	sord, _ := g.Param("sord")
	sord = normalizeSortOrder(sord)

	entries := strings.Split(sidx, ",")

	var sort Sort
	for i, entry := range entries {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}

		name := fields[0]
		direction := SortOrderAsc
		if len(fields) > 1 {
			direction = normalizeSortOrder(fields[1])
		}
		if i == len(entries)-1 {
			direction = sord
		}

		if !g.sortableColumn(name) {
			continue
		}

		sort = append(sort, SortEntry{Column: name, Direction: direction})
	}

	return sort
}

func (g *Grid) sortableColumn(name string) bool {
	col, ok := g.byName[name]
	if !ok {
		return false
	}
	attrs := col.Attrs()
	return attrs.Sortable && !attrs.Hidden
}

func normalizeSortOrder(order string) string {
	if strings.EqualFold(order, SortOrderDesc) {
		return SortOrderDesc
	}
	return SortOrderAsc
}
