package jqgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// DataResponse is the JSON envelope the grid widget consumes.
type DataResponse struct {
	Page     int                    `json:"page"`
	Total    int                    `json:"total"`
	Records  int                    `json:"records"`
	Rows     []ResponseRow          `json:"rows"`
	UserData map[string]interface{} `json:"userdata,omitempty"`
}

// ResponseRow is one grid row on the wire.
type ResponseRow struct {
	ID   string            `json:"id"`
	Cell map[string]string `json:"cell"`
}

// NewDataResponse fetches the current page through the adapter and
// shapes it into the response envelope. Rows without a configured row-id
// column get a 1-based positional id.
func NewDataResponse(ctx context.Context, grid *Grid, adapter Adapter) (*DataResponse, error) {
	result, err := adapter.FetchData(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ResponseRow, 0, len(result.Rows))
	for i, row := range result.Rows {
		id := row.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		rows = append(rows, ResponseRow{ID: id, Cell: row.Cells})
	}

	return &DataResponse{
		Page:     grid.CurrentPage(),
		Total:    adapter.NumberOfPages(),
		Records:  result.CountOfItemsTotal,
		Rows:     rows,
		UserData: result.UserData,
	}, nil
}

// Write serializes the envelope as JSON.
func (r *DataResponse) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return errors.Wrap(err, "encode grid response")
	}
	return nil
}
