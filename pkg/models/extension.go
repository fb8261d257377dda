package models

import (
	"encoding/json"
	"time"
)

// RowSelection flags a row of a table as selected for extension.
type RowSelection struct {
	ID       int64 `json:"id"`
	TableID  int64 `json:"table_id"`
	RowIndex int   `json:"row_index"`
	Selected bool  `json:"selected"`
}

// Extension value kinds.
const (
	ValueKindEntity  = "entity"
	ValueKindLiteral = "literal"
)

// ExtensionValue is one property value fetched for a reconciled cell while
// extending a table.
type ExtensionValue struct {
	ID        int64           `json:"id"`
	CellID    int64           `json:"cell_id"`
	Property  string          `json:"property"`
	Value     string          `json:"value"`
	ValueKind string          `json:"value_kind"`
	Context   json.RawMessage `json:"context,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks an extension value before it is written.
func (e *ExtensionValue) Validate() error {
	if e.Property == "" {
		return invalidf("extension value has no property")
	}
	switch e.ValueKind {
	case ValueKindEntity, ValueKindLiteral:
	default:
		return invalidf("unknown value kind %q", e.ValueKind)
	}
	if len(e.Context) > 0 && !json.Valid(e.Context) {
		return invalidf("extension context is not valid JSON")
	}
	return nil
}
