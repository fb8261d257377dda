package models

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleViewCells() []ViewCell {
	return []ViewCell{
		{ColumnName: "City", RowIndex: 1, Value: "Rome"},
		{ColumnName: "City", RowIndex: 0, Value: "Milan\tnord"},
		{ColumnName: "Country", RowIndex: 0, Value: "Italy"},
		{ColumnName: "Country", RowIndex: 1, Value: "Italy"},
		{ColumnName: "Population", RowIndex: 0, Value: "1352000"},
		{ColumnName: "City", RowIndex: 3, Value: "Paris"},
	}
}

func TestPivotCells(t *testing.T) {
	view := PivotCells(42, []string{"City", "Country", "Population"}, sampleViewCells())

	assert.Equal(t, int64(42), view.TableID)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{view.Rows[0].RowIndex, view.Rows[1].RowIndex, view.Rows[2].RowIndex})
	assert.Equal(t, map[string]string{"City": "Paris"}, view.Rows[2].Cells)
}

func TestPivotCells_Empty(t *testing.T) {
	view := PivotCells(1, []string{"A"}, nil)

	assert.NotNil(t, view.Rows)
	assert.Empty(t, view.Rows)
}

func TestTableView_Render(t *testing.T) {
	view := PivotCells(42, []string{"City", "Country", "Population"}, sampleViewCells())

	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "table_view", buf.Bytes())
}
