package jqgrid

import (
	_ "embed"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/catalog.schema.json
var catalogSchema []byte

// Catalog is a JSON grid-definition file: grid options and columns with
// per-language labels, loadable without writing configuration code.
type Catalog struct {
	Version string        `json:"version"`
	Grids   []CatalogGrid `json:"grids"`
}

type CatalogGrid struct {
	Name             string          `json:"name"`
	PageSize         int             `json:"page_size"`
	PageSizes        []int           `json:"page_sizes"`
	SortColumn       string          `json:"sort_column"`
	SortDirection    string          `json:"sort_direction"`
	RowID            string          `json:"row_id"`
	UserDataOnFooter bool            `json:"userdata_on_footer"`
	DatePattern      string          `json:"date_pattern"`
	Columns          []CatalogColumn `json:"columns"`
}

type CatalogColumn struct {
	Name        string            `json:"name"`
	Identifier  string            `json:"identifier"`
	Type        string            `json:"type"`
	Labels      map[string]string `json:"labels"`
	Hidden      bool              `json:"hidden"`
	Searchable  *bool             `json:"searchable"`
	Sortable    *bool             `json:"sortable"`
	SummaryType string            `json:"summary_type"`

	Multiplier int `json:"multiplier"`
	Divisor    int `json:"divisor"`

	TrueValue  string `json:"true_value"`
	TrueLabel  string `json:"true_label"`
	FalseValue string `json:"false_value"`
	FalseLabel string `json:"false_label"`

	Options map[string]string `json:"options"`

	Identifiers []string `json:"identifiers"`
	Pattern     string   `json:"pattern"`
	Separator   string   `json:"separator"`

	Href       string            `json:"href"`
	HrefParams map[string]string `json:"href_params"`
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return ParseCatalog(data)
}

// ParseCatalog validates catalog JSON against the embedded schema before
// decoding it; a catalog rejected by the schema never reaches grid
// construction.
func ParseCatalog(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.Wrap(err, "validate catalog")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, configErrorf("invalid catalog: %s", strings.Join(details, "; "))
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return &catalog, nil
}

// Grid builds a configured grid from a catalog entry, picking column
// labels for the requested language with English as fallback.
func (c *Catalog) Grid(name, lang string) (*Grid, error) {
	var def *CatalogGrid
	for i := range c.Grids {
		if c.Grids[i].Name == name {
			def = &c.Grids[i]
			break
		}
	}
	if def == nil {
		return nil, configErrorf("grid %q not found in catalog", name)
	}

	options := GridOptions{
		Name:               def.Name,
		RecordsPerPage:     def.PageSize,
		RecordsPerPageList: def.PageSizes,
		DefaultSortColumn:  def.SortColumn,
		DefaultSortOrder:   def.SortDirection,
		RowIDColumn:        def.RowID,
		UserDataOnFooter:   def.UserDataOnFooter,
	}
	if def.DatePattern != "" {
		options.Locale = Locale{ShortDatePattern: def.DatePattern}
	}

	grid, err := NewGrid(options)
	if err != nil {
		return nil, err
	}

	for _, colDef := range def.Columns {
		col, err := buildCatalogColumn(colDef, lang)
		if err != nil {
			return nil, err
		}
		if err := grid.AddColumn(col); err != nil {
			return nil, err
		}
	}

	return grid, nil
}

func buildCatalogColumn(def CatalogColumn, lang string) (Column, error) {
	identifier := def.Identifier
	if identifier == "" {
		identifier = def.Name
	}

	var col Column
	switch def.Type {
	case "text":
		col = NewText(def.Name, identifier)
	case "number":
		number := NewNumber(def.Name, identifier)
		number.Multiplier = def.Multiplier
		number.Divisor = def.Divisor
		col = number
	case "boolean":
		boolean := NewBoolean(def.Name, identifier)
		boolean.TrueValue = def.TrueValue
		boolean.TrueLabel = def.TrueLabel
		boolean.FalseValue = def.FalseValue
		boolean.FalseLabel = def.FalseLabel
		col = boolean
	case "date":
		col = NewDate(def.Name, identifier)
	case "datetime":
		col = NewDateTime(def.Name, identifier)
	case "options":
		options := NewOptions(def.Name, identifier)
		options.Values = def.Options
		col = options
	case "concat":
		col = NewConcat(def.Name, ConcatOptions{
			Identifiers: def.Identifiers,
			Pattern:     def.Pattern,
			Separator:   def.Separator,
		})
	case "link":
		link := NewLink(def.Name, identifier)
		link.Href = def.Href
		link.HrefParams = def.HrefParams
		col = link
	default:
		return nil, configErrorf("unknown column type %q for column %q", def.Type, def.Name)
	}

	attrs := col.Attrs()
	attrs.Label = catalogLabel(def, lang)
	attrs.Hidden = def.Hidden
	if def.Searchable != nil {
		attrs.Searchable = *def.Searchable
	}
	if def.Sortable != nil {
		attrs.Sortable = *def.Sortable
	}
	attrs.SummaryType = def.SummaryType

	return col, nil
}

func catalogLabel(def CatalogColumn, lang string) string {
	if label, ok := def.Labels[lang]; ok {
		return label
	}
	if label, ok := def.Labels["en"]; ok {
		return label
	}
	return def.Name
}
