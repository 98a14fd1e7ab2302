package jqgrid

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AdapterFactory builds a fresh adapter per request; adapters are
// request-scoped and must not be reused across prepare/fetch cycles.
type AdapterFactory func() Adapter

// Handler serves grid data over HTTP: query parameters in, the JSON
// envelope out.
type Handler struct {
	grid    *Grid
	adapter AdapterFactory
	logger  zerolog.Logger
}

func NewHandler(grid *Grid, adapter AdapterFactory) *Handler {
	return &Handler{
		grid:    grid,
		adapter: adapter,
		logger:  zerolog.Nop(),
	}
}

func (h *Handler) SetLogger(logger zerolog.Logger) {
	h.logger = logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if err := h.grid.SetParams(params); err != nil {
		h.fail(w, err)
		return
	}

	adapter := h.adapter()
	if err := adapter.Prepare(h.grid); err != nil {
		h.fail(w, err)
		return
	}

	response, err := NewDataResponse(r.Context(), h.grid, adapter)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Debug().
		Str("grid", h.grid.Name()).
		Int("page", response.Page).
		Int("records", response.Records).
		Msg("grid data served")

	if err := response.Write(w); err != nil {
		h.logger.Error().Err(err).Str("grid", h.grid.Name()).Msg("write grid response")
	}
}

// fail maps the error taxonomy onto HTTP statuses: bad filter input is
// the client's fault, everything else is a server error.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrInvalidOperator) {
		status = http.StatusBadRequest
	}

	h.logger.Error().Err(err).Str("grid", h.grid.Name()).Msg("grid request failed")
	http.Error(w, err.Error(), status)
}
