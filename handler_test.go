package jqgrid

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSliceHandler(t *testing.T) *Handler {
	t.Helper()

	grid, err := NewGrid(GridOptions{Name: "people", RowIDColumn: "id"})
	require.NoError(t, err)
	require.NoError(t, grid.AddColumns(NewNumber("id", "id"), NewText("name", "name")))

	data := []Row{
		{"id": 1, "name": "Anna"},
		{"id": 2, "name": "Ben"},
		{"id": 3, "name": "Anna"},
	}

	return NewHandler(grid, func() Adapter { return NewSliceAdapter(data) })
}

func TestHandlerServesGridData(t *testing.T) {
	handler := newSliceHandler(t)

	query := url.Values{
		"_name":   {"people"},
		"page":    {"1"},
		"rows":    {"10"},
		"filters": {filterJSON("AND", `{"field":"name","op":"eq","data":"Anna"}`)},
	}
	req := httptest.NewRequest(http.MethodGet, "/grid/data?"+query.Encode(), nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response struct {
		Page    int `json:"page"`
		Records int `json:"records"`
		Rows    []struct {
			ID string `json:"id"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Page)
	assert.Equal(t, 2, response.Records)
	require.Len(t, response.Rows, 2)
	assert.Equal(t, "1", response.Rows[0].ID)
	assert.Equal(t, "3", response.Rows[1].ID)
}

func TestHandlerConcurrentRequests(t *testing.T) {
	handler := newSliceHandler(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			query := url.Values{
				"_name": {"people"},
				"page":  {strconv.Itoa(i%2 + 1)},
				"rows":  {"2"},
				"sidx":  {"name"},
			}
			req := httptest.NewRequest(http.MethodGet, "/grid/data?"+query.Encode(), nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("request %d: unexpected status %d", i, rec.Code)
			}
		}(i)
	}
	wg.Wait()
}

func TestHandlerRejectsUnknownOperator(t *testing.T) {
	handler := newSliceHandler(t)

	query := url.Values{
		"filters": {`{"groupOp":"AND","rules":[{"field":"name","op":"zz","data":"x"}]}`},
	}
	req := httptest.NewRequest(http.MethodGet, "/grid/data?"+query.Encode(), nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
