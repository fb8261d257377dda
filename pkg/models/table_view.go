package models

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
)

// TableView is a table pivoted from cells into rows.
type TableView struct {
	TableID int64          `json:"table_id"`
	Columns []string       `json:"columns"`
	Rows    []TableViewRow `json:"rows"`
}

// TableViewRow maps column name to cell value for one row index.
// Columns without a cell in this row are absent from Cells.
type TableViewRow struct {
	RowIndex int               `json:"row_index"`
	Cells    map[string]string `json:"cells"`
}

// ViewCell is one cell as read for pivoting.
type ViewCell struct {
	ColumnName string
	RowIndex   int
	Value      string
}

// PivotCells builds a TableView. columns fixes the column order; rows are
// sorted by ascending row index.
func PivotCells(tableID int64, columns []string, cells []ViewCell) *TableView {
	byRow := make(map[int]map[string]string)
	for _, c := range cells {
		row, ok := byRow[c.RowIndex]
		if !ok {
			row = make(map[string]string)
			byRow[c.RowIndex] = row
		}
		row[c.ColumnName] = c.Value
	}

	indexes := make([]int, 0, len(byRow))
	for idx := range byRow {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	view := &TableView{
		TableID: tableID,
		Columns: append([]string{}, columns...),
		Rows:    make([]TableViewRow, 0, len(indexes)),
	}
	for _, idx := range indexes {
		view.Rows = append(view.Rows, TableViewRow{RowIndex: idx, Cells: byRow[idx]})
	}
	return view
}

// Render writes the view as tab-separated text: a header line with "row" and
// the column names, then one line per row. Tabs and newlines inside values are
// replaced by spaces.
func (v *TableView) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)

	header := append([]string{"row"}, v.Columns...)
	if _, err := bw.WriteString(joinTSV(header)); err != nil {
		return err
	}

	fields := make([]string, len(v.Columns)+1)
	for _, row := range v.Rows {
		fields[0] = strconv.Itoa(row.RowIndex)
		for i, col := range v.Columns {
			fields[i+1] = row.Cells[col]
		}
		if _, err := bw.WriteString(joinTSV(fields)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func joinTSV(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = tsvEscaper.Replace(f)
	}
	return strings.Join(escaped, "\t") + "\n"
}
