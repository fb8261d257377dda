package models

import (
	"time"
)

// Table belongs to a Dataset. The counters are computed from the table's
// columns and cells when the table is read; they are never stored.
type Table struct {
	ID                    int64      `json:"id"`
	DatasetID             int64      `json:"dataset_id"`
	Name                  string     `json:"name"`
	NumCols               int        `json:"num_col"`
	NumRows               int        `json:"num_rows"`
	NumCells              int        `json:"num_cells"`
	NumCellsReconciliated int        `json:"num_cells_reconciliated"`
	LastModifiedDate      time.Time  `json:"last_modified_date"`
	RDF                   *string    `json:"rdf,omitempty"`
	Completion            Completion `json:"completion"`
}

// Completion is the reconciliation progress of a table.
type Completion struct {
	Total int `json:"total"`
	Value int `json:"value"`
}

// FillCompletion derives Completion from the counters.
func (t *Table) FillCompletion() {
	t.Completion = Completion{Total: t.NumCells, Value: t.NumCellsReconciliated}
}
