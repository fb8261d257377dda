package models

// Cell is one value of a Column at a given row, together with its
// reconciliation state.
type Cell struct {
	ID             int64          `json:"id"`
	ColumnID       int64          `json:"column_id"`
	RowIndex       int            `json:"row_index"`
	CellValue      string         `json:"cell_value"`
	MatchID        *string        `json:"match_id"`
	Score          *float64       `json:"score"`
	Candidates     Candidates     `json:"candidates"`
	AnnotationMeta AnnotationMeta `json:"annotation_meta"`
	DocVersion     int            `json:"doc_version"`
}

// Validate checks a cell before it is written.
func (c *Cell) Validate() error {
	if c.RowIndex < 0 {
		return invalidf("row index must not be negative (got %d)", c.RowIndex)
	}
	return c.Candidates.Validate()
}

// IsReconciliated reports whether a match has been chosen for the cell.
func (c *Cell) IsReconciliated() bool {
	return c.MatchID != nil && *c.MatchID != ""
}

// CellSearchRow is the projection returned by value searches.
type CellSearchRow struct {
	CellID    int64  `json:"cell_id"`
	ColumnID  int64  `json:"column_id"`
	RowIndex  int    `json:"row_index"`
	CellValue string `json:"cell_value"`
}

// CellResult is the reconciliation outcome written to a cell in one update.
type CellResult struct {
	MatchID        *string        `json:"match_id"`
	Score          *float64       `json:"score"`
	Candidates     Candidates     `json:"candidates"`
	AnnotationMeta AnnotationMeta `json:"annotation_meta"`
}

// Validate checks a result before it is written.
func (r *CellResult) Validate() error {
	return r.Candidates.Validate()
}
