package models

import (
	"encoding/json"
	"strings"

	"github.com/larasormani21/db-SemTUI/pkg/jsonutil"
)

// Column status values used by the reconciliation UI. Status is free text;
// these are the values the application writes itself.
const (
	ColumnStatusEmpty         = "empty"
	ColumnStatusPending       = "pending"
	ColumnStatusReconciliated = "reconciliated"
)

// Column is a column of a Table.
type Column struct {
	ID             int64          `json:"id"`
	TableID        int64          `json:"table_id"`
	Name           string         `json:"name"`
	Status         *string        `json:"status"`
	Context        ColumnContext  `json:"context"`
	IsEntity       bool           `json:"is_entity"`
	Metadata       ColumnMetadata `json:"metadata"`
	AnnotationMeta AnnotationMeta `json:"annotation_meta"`
	DocVersion     int            `json:"doc_version"`
}

// Validate checks a column before it is written.
func (c *Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalidf("column name is required")
	}
	return c.Metadata.Validate()
}

// ContextEntry summarizes reconciliation against one knowledge-graph prefix.
type ContextEntry struct {
	URI           string `json:"uri"`
	Total         int    `json:"total"`
	Reconciliated int    `json:"reconciliated"`
}

// ColumnContext maps a knowledge-graph prefix (e.g. "wd") to its summary.
type ColumnContext map[string]ContextEntry

// Scan implements sql.Scanner for reading JSONB from database.
func (c *ColumnContext) Scan(value interface{}) error {
	*c = ColumnContext{}
	return scanJSON(value, (*map[string]ContextEntry)(c))
}

// Value implements driver.Valuer for writing JSONB to database.
func (c ColumnContext) Value() (interface{}, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]ContextEntry(c))
}

// Property is a named relation from one column to another column of the same
// table. Obj holds the target column name.
type Property struct {
	ID    string  `json:"id"`
	Obj   string  `json:"obj"`
	Name  string  `json:"name"`
	Match bool    `json:"match"`
	Score float64 `json:"score"`
}

// UnmarshalJSON accepts scores and match flags serialized as strings.
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Obj   string          `json:"obj"`
		Name  string          `json:"name"`
		Match json.RawMessage `json:"match"`
		Score json.RawMessage `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	score, _ := jsonutil.FlexibleFloat(raw.Score)
	*p = Property{
		ID:    jsonutil.FlexibleStringValue(raw.ID),
		Obj:   raw.Obj,
		Name:  raw.Name,
		Match: jsonutil.FlexibleBool(raw.Match),
		Score: score,
	}
	return nil
}

// MetadataEntry is one element of a column's metadata array. Element 0 carries
// the Property list; every other member (id, name, type, entity...) is kept in Extra.
type MetadataEntry struct {
	Property []Property
	Extra    map[string]json.RawMessage
}

// ID returns the entry's "id" member rendered as a string, or "".
func (e MetadataEntry) ID() string {
	return jsonutil.FlexibleStringValue(e.Extra["id"])
}

// MarshalJSON implements json.Marshaler.
func (e MetadataEntry) MarshalJSON() ([]byte, error) {
	typed := map[string]any{}
	if e.Property != nil {
		typed["property"] = e.Property
	}
	return joinKnown(e.Extra, typed)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *MetadataEntry) UnmarshalJSON(data []byte) error {
	var out MetadataEntry
	extra, err := splitKnown(data, map[string]func(json.RawMessage) error{
		"property": decodeInto(&out.Property),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*e = out
	return nil
}

// ColumnMetadata is the JSONB metadata array stored on a column.
type ColumnMetadata []MetadataEntry

// Scan implements sql.Scanner for reading JSONB from database.
func (m *ColumnMetadata) Scan(value interface{}) error {
	*m = ColumnMetadata{}
	return scanJSON(value, (*[]MetadataEntry)(m))
}

// Value implements driver.Valuer for writing JSONB to database.
func (m ColumnMetadata) Value() (interface{}, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]MetadataEntry(m))
}

// Properties returns the property list of element 0, or nil.
func (m ColumnMetadata) Properties() []Property {
	if len(m) == 0 {
		return nil
	}
	return m[0].Property
}

// ReferencesColumn reports whether element 0 has a property pointing at name.
// Column names compare case-insensitively.
func (m ColumnMetadata) ReferencesColumn(name string) bool {
	for _, p := range m.Properties() {
		if strings.EqualFold(p.Obj, name) {
			return true
		}
	}
	return false
}

// Validate checks property entries: every entry needs an id, since property
// updates and deletes address entries by id.
func (m ColumnMetadata) Validate() error {
	for i, p := range m.Properties() {
		if p.ID == "" {
			return invalidf("property %d has no id", i)
		}
	}
	return nil
}
