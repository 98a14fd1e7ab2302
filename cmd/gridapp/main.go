package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/jqgrid"
	"github.com/gnemet/jqgrid/database/exportcursor"
)

type Config struct {
	Application struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"application"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database []struct {
		Name     string `yaml:"name"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		Schema   string `yaml:"schema"`
		Default  bool   `yaml:"default"`
	} `yaml:"database"`

	Catalog struct {
		Path string `yaml:"path"`
		Grid string `yaml:"grid"`
		Lang string `yaml:"lang"`
	} `yaml:"catalog"`

	Grid struct {
		Table string `yaml:"table"`
	} `yaml:"grid"`

	Export struct {
		MaxCursors  int `yaml:"max_cursors"`
		IdleMinutes int `yaml:"idle_minutes"`
		AbsMinutes  int `yaml:"abs_minutes"`
	} `yaml:"export"`
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load() // Ignore error as it might not exist in prod

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, err
	}

	// Expand env vars in YAML
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	var connStr string
	for _, d := range cfg.Database {
		if d.Default {
			connStr = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=%s,public",
				d.Host, d.Port, d.User, d.Password, d.Database, d.Schema)
			break
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}

	catalog, err := jqgrid.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}

	grid, err := catalog.Grid(cfg.Catalog.Grid, cfg.Catalog.Lang)
	if err != nil {
		logger.Fatal().Err(err).Msg("build grid")
	}

	pool := exportcursor.NewPool(db,
		cfg.Export.MaxCursors,
		time.Duration(cfg.Export.IdleMinutes)*time.Minute,
		time.Duration(cfg.Export.AbsMinutes)*time.Minute)
	defer pool.Close()

	newAdapter := func() *jqgrid.SelectAdapter {
		query := jqgrid.NewSelect(cfg.Grid.Table, projection(grid)...)
		adapter := jqgrid.NewSelectAdapter(db, query)
		adapter.SetCursorPool(pool)
		return adapter
	}

	handler := jqgrid.NewHandler(grid, func() jqgrid.Adapter { return newAdapter() })
	handler.SetLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/grid/data", handler)
	r.Get("/grid/export", func(w http.ResponseWriter, req *http.Request) {
		exportCSV(w, req, grid, newAdapter(), logger)
	})

	demoHandler, err := newDemoHandler(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build demo grid")
	}
	r.Method(http.MethodGet, "/demo/data", demoHandler)

	logger.Info().
		Str("app", cfg.Application.Name).
		Str("version", cfg.Application.Version).
		Str("port", cfg.Server.Port).
		Msg("listening")

	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newDemoHandler serves a small in-memory grid, useful for poking at the
// filter and sort parameters without a database.
func newDemoHandler(logger zerolog.Logger) (*jqgrid.Handler, error) {
	grid, err := jqgrid.NewGrid(jqgrid.GridOptions{
		Name:              "demo",
		RowIDColumn:       "id",
		DefaultSortColumn: "name",
	})
	if err != nil {
		return nil, err
	}

	active := jqgrid.NewBoolean("active", "active")
	active.TrueValue, active.TrueLabel = "true", "Yes"
	active.FalseValue, active.FalseLabel = "false", "No"

	if err := grid.AddColumns(
		jqgrid.NewNumber("id", "id"),
		jqgrid.NewText("name", "name"),
		active,
	); err != nil {
		return nil, err
	}

	data := []jqgrid.Row{
		{"id": 1, "name": "Anna", "active": true},
		{"id": 2, "name": "Ben", "active": false},
		{"id": 3, "name": "Clara", "active": true},
	}

	handler := jqgrid.NewHandler(grid, func() jqgrid.Adapter {
		return jqgrid.NewSliceAdapter(data)
	})
	handler.SetLogger(logger)
	return handler, nil
}

func projection(grid *jqgrid.Grid) []string {
	var cols []string
	for _, col := range grid.Columns() {
		if _, composite := col.(jqgrid.Composite); composite {
			continue
		}
		if col.Identifier() == col.Name() {
			cols = append(cols, col.Identifier())
		} else {
			cols = append(cols, col.Identifier()+" AS "+col.Name())
		}
	}
	return cols
}

func exportCSV(w http.ResponseWriter, req *http.Request, grid *jqgrid.Grid, adapter *jqgrid.SelectAdapter, logger zerolog.Logger) {
	if err := adapter.Prepare(grid); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stream, err := adapter.Export(req.Context(), req.URL.Query()["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+grid.Name()+`.csv"`)

	cw := csv.NewWriter(w)
	var header []string
	for _, col := range grid.Columns() {
		header = append(header, col.Name())
	}
	cw.Write(header)

	for {
		item, ok := stream.Next()
		if !ok {
			break
		}
		if item.Err != nil {
			logger.Error().Err(item.Err).Str("grid", grid.Name()).Msg("export aborted")
			break
		}

		record := make([]string, 0, len(header))
		for _, name := range header {
			record = append(record, item.Row.Cells[name])
		}
		cw.Write(record)
	}
	cw.Flush()
}
