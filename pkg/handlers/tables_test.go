package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/models"
	"github.com/larasormani21/db-SemTUI/pkg/repositories"
)

func newCatalogMux(datasets *mockDatasetRepository, tables *mockTableRepository, columns *mockColumnRepository, cells *mockCellRepository) *http.ServeMux {
	mux := http.NewServeMux()
	NewDatasetsHandler(datasets, tables, zap.NewNop()).RegisterRoutes(mux, noScope)
	NewTablesHandler(tables, columns, zap.NewNop()).RegisterRoutes(mux, noScope)
	NewColumnsHandler(columns, cells, zap.NewNop()).RegisterRoutes(mux, noScope)
	return mux
}

func catalogFixture() (*mockDatasetRepository, *mockTableRepository, *mockColumnRepository, *mockCellRepository) {
	datasets := &mockDatasetRepository{datasets: []*models.Dataset{{ID: 1, UserID: 1, Name: "cities"}}}
	tables := &mockTableRepository{
		tables: map[int64]*models.Table{
			10: {ID: 10, DatasetID: 1, Name: "europe", NumCells: 4, NumCellsReconciliated: 1, Completion: models.Completion{Total: 4, Value: 1}},
		},
		views: map[int64]*models.TableView{
			10: models.PivotCells(10, []string{"City", "Country"}, []models.ViewCell{
				{ColumnName: "City", RowIndex: 0, Value: "Milan"},
				{ColumnName: "Country", RowIndex: 0, Value: "Italy"},
			}),
		},
	}
	columns := &mockColumnRepository{columns: []*models.Column{
		{ID: 100, TableID: 10, Name: "City", IsEntity: true},
		{ID: 101, TableID: 10, Name: "Country"},
	}}
	cells := &mockCellRepository{cells: map[int64]*models.Cell{
		1000: {ID: 1000, ColumnID: 100, RowIndex: 0, CellValue: "Milan"},
	}}
	return datasets, tables, columns, cells
}

func TestDatasetsHandler_ListByUser(t *testing.T) {
	datasets, tables, columns, cells := catalogFixture()
	mux := newCatalogMux(datasets, tables, columns, cells)

	rec := serve(mux, http.MethodGet, "/api/users/1/datasets?search=cit&sort=created_at&dir=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repositories.ListOptions{Search: "cit", SortBy: "created_at", SortDir: "desc"}, datasets.lastOpts)

	var got []models.Dataset
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "cities", got[0].Name)

	datasets.err = apperrors.ErrInvalidSort
	rec = serve(mux, http.MethodGet, "/api/users/1/datasets?sort=password", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/users/zero/datasets", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetsHandler_ListTables(t *testing.T) {
	mux := newCatalogMux(catalogFixture())

	rec := serve(mux, http.MethodGet, "/api/datasets/1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total": 4, "value": 1}`, mustField(t, rec.Body.Bytes(), 0, "completion"))
}

func mustField(t *testing.T, body []byte, index int, field string) string {
	t.Helper()
	var items []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &items))
	require.Greater(t, len(items), index)
	return string(items[index][field])
}

func TestTablesHandler_Get(t *testing.T) {
	mux := newCatalogMux(catalogFixture())

	rec := serve(mux, http.MethodGet, "/api/tables/10", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/tables/11", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTablesHandler_View(t *testing.T) {
	mux := newCatalogMux(catalogFixture())

	rec := serve(mux, http.MethodGet, "/api/tables/10/view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.TableView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, []string{"City", "Country"}, view.Columns)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "Milan", view.Rows[0].Cells["City"])

	rec = serve(mux, http.MethodGet, "/api/tables/10/view?format=tsv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "row\tCity\tCountry\n0\tMilan\tItaly\n", rec.Body.String())

	rec = serve(mux, http.MethodGet, "/api/tables/99/view", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTablesHandler_ListColumns(t *testing.T) {
	mux := newCatalogMux(catalogFixture())

	rec := serve(mux, http.MethodGet, "/api/tables/10/columns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cols []models.Column
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cols))
	assert.Len(t, cols, 2)
}

func TestColumnsHandler_Delete(t *testing.T) {
	datasets, tables, columns, cells := catalogFixture()
	mux := newCatalogMux(datasets, tables, columns, cells)

	rec := serve(mux, http.MethodDelete, "/api/columns/101", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{101}, columns.deleted)

	rec = serve(mux, http.MethodDelete, "/api/columns/555", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestColumnsHandler_ListCells(t *testing.T) {
	mux := newCatalogMux(catalogFixture())

	rec := serve(mux, http.MethodGet, "/api/columns/100/cells", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Cell
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Milan", got[0].CellValue)
}
