package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/larasormani21/db-SemTUI/pkg/jsonutil"
	"github.com/larasormani21/db-SemTUI/pkg/models"
)

// member is one key/value pair of a JSON object, in document order.
type member struct {
	Key   string
	Value json.RawMessage
}

// objectMembers decodes a JSON object keeping its member order, which decides
// column creation order and extension row indexes. null decodes to no members.
func objectMembers(raw json.RawMessage) ([]member, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("member %q: %w", key, err)
		}
		members = append(members, member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// tableDocument is the exported table: columns keyed by name, rows keyed by row id.
type tableDocument struct {
	Columns json.RawMessage `json:"columns"`
	Rows    json.RawMessage `json:"rows"`
}

type columnDocument struct {
	Status         json.RawMessage       `json:"status"`
	Context        models.ColumnContext  `json:"context"`
	Kind           string                `json:"kind"`
	Metadata       models.ColumnMetadata `json:"metadata"`
	AnnotationMeta models.AnnotationMeta `json:"annotationMeta"`
}

type rowDocument struct {
	Cells json.RawMessage `json:"cells"`
}

type cellDocument struct {
	Label          json.RawMessage       `json:"label"`
	Metadata       models.Candidates     `json:"metadata"`
	AnnotationMeta models.AnnotationMeta `json:"annotationMeta"`
}

// parseRowKey accepts "r12" and "12".
func parseRowKey(key string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(key), "r")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid row key %q", key)
	}
	return n, nil
}

// extensionDocument is the response of an extension service: one meta entry
// per new column, and rows keyed by entity id then by property id.
type extensionDocument struct {
	Meta []json.RawMessage `json:"meta"`
	Rows json.RawMessage   `json:"rows"`
}

type extensionMeta struct {
	ID   json.RawMessage `json:"id"`
	Type json.RawMessage `json:"type"`
}

// extensionValue is one value of a property; entities carry id and name,
// literals carry str.
type extensionValue struct {
	ID   json.RawMessage `json:"id"`
	Name json.RawMessage `json:"name"`
	Str  json.RawMessage `json:"str"`
}

// label is the text shown for the value: name, else str, else id.
func (v extensionValue) label() string {
	for _, raw := range []json.RawMessage{v.Name, v.Str, v.ID} {
		if s := jsonutil.FlexibleStringValue(raw); s != "" {
			return s
		}
	}
	return ""
}

// truthy reports whether raw is present and not null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
