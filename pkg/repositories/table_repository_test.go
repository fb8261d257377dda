//go:build integration

package repositories

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
	"github.com/larasormani21/db-SemTUI/pkg/models"
)

func TestTableRepository_CountersAreComputedOnRead(t *testing.T) {
	tc := setupStoreTest(t)
	table := tc.newTable()
	assert.Equal(t, models.Completion{}, table.Completion)

	city := tc.createColumn(table.ID, "City", true)
	country := tc.createColumn(table.ID, "Country", true)
	tc.createCell(city.ID, 0, "Rome", models.Candidates{candidate("Q220", "Rome", 0.9, true)})
	tc.createCell(city.ID, 1, "Paris", nil)
	tc.createCell(country.ID, 0, "Italy", models.Candidates{candidate("Q38", "Italy", 0.8, true)})

	got, err := tc.tables.GetByID(tc.ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumCols)
	assert.Equal(t, 2, got.NumRows)
	assert.Equal(t, 3, got.NumCells)
	assert.Equal(t, 2, got.NumCellsReconciliated)
	assert.Equal(t, models.Completion{Total: 3, Value: 2}, got.Completion)
}

func TestTableRepository_GetByNameAndDatasetCaseInsensitive(t *testing.T) {
	tc := setupStoreTest(t)
	table := tc.newTable()

	got, err := tc.tables.GetByNameAndDataset(tc.ctx, "t", table.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, table.ID, got.ID)

	_, err = tc.tables.GetByNameAndDataset(tc.ctx, "missing", table.DatasetID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = tc.tables.Create(tc.ctx, table.DatasetID, "T", nil)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = tc.tables.Create(tc.ctx, 999999, "Orphan", nil)
	assert.True(t, errors.Is(err, apperrors.ErrForeignKey))
}

func TestTableRepository_ListSearchAndSort(t *testing.T) {
	tc := setupStoreTest(t)
	user := tc.createUser("bob")
	ds := tc.createDataset(user.ID, "D")
	small := tc.createTable(ds.ID, "cities_small")
	tc.createTable(ds.ID, "Cities_large")
	tc.createTable(ds.ID, "rivers")

	col := tc.createColumn(small.ID, "City", false)
	tc.createCell(col.ID, 0, "Rome", nil)
	tc.createCell(col.ID, 1, "Milan", nil)

	found, err := tc.tables.ListByDataset(tc.ctx, ds.ID, ListOptions{Search: "CITIES", SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Cities_large", found[0].Name)

	byRows, err := tc.tables.ListAll(tc.ctx, ListOptions{SortBy: "num_rows", SortDir: "desc"})
	require.NoError(t, err)
	require.Len(t, byRows, 3)
	assert.Equal(t, "cities_small", byRows[0].Name)
	assert.Equal(t, 2, byRows[0].NumRows)

	_, err = tc.tables.ListAll(tc.ctx, ListOptions{SortBy: "rdf"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSort))

	none, err := tc.tables.ListByDataset(tc.ctx, ds.ID, ListOptions{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTableRepository_UpdatesAndDelete(t *testing.T) {
	tc := setupStoreTest(t)
	table := tc.newTable()

	require.NoError(t, tc.tables.UpdateName(tc.ctx, table.ID, "Renamed"))
	rdf := "<s> <p> <o> ."
	require.NoError(t, tc.tables.UpdateRDF(tc.ctx, table.ID, &rdf))
	require.NoError(t, tc.tables.Touch(tc.ctx, table.ID))

	got, err := tc.tables.GetByID(tc.ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.NotNil(t, got.RDF)
	assert.Equal(t, rdf, *got.RDF)
	assert.False(t, got.LastModifiedDate.Before(table.LastModifiedDate))

	require.NoError(t, tc.tables.Delete(tc.ctx, table.ID))
	assert.True(t, errors.Is(tc.tables.Delete(tc.ctx, table.ID), apperrors.ErrNotFound))
	assert.True(t, errors.Is(tc.tables.Touch(tc.ctx, table.ID), apperrors.ErrNotFound))
}

func TestTableRepository_PrintTableByTableID(t *testing.T) {
	tc := setupStoreTest(t)
	table := tc.newTable()
	city := tc.createColumn(table.ID, "City", true)
	country := tc.createColumn(table.ID, "Country", true)
	tc.createCell(city.ID, 1, "Paris", nil)
	tc.createCell(city.ID, 0, "Rome", nil)
	tc.createCell(country.ID, 0, "Italy", nil)

	view, err := tc.tables.PrintTableByTableID(tc.ctx, table.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"City", "Country"}, view.Columns)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, map[string]string{"City": "Rome", "Country": "Italy"}, view.Rows[0].Cells)
	assert.Equal(t, map[string]string{"City": "Paris"}, view.Rows[1].Cells)

	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf))
	assert.Equal(t, "row\tCity\tCountry\n0\tRome\tItaly\n1\tParis\t\n", buf.String())

	_, err = tc.tables.PrintTableByTableID(tc.ctx, table.ID+100)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
