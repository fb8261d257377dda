package models

import (
	"encoding/json"
	"fmt"

	"github.com/larasormani21/db-SemTUI/pkg/apperrors"
)

// DocSchemaVersion is the version of the JSON document shapes in this package.
// It is stored next to every JSON document column (doc_version) so that a
// future shape change can be detected and migrated instead of drifting silently.
const DocSchemaVersion = 1

// scanJSON decodes a JSONB value handed to sql.Scanner.Scan into dst.
// NULL leaves dst untouched.
func scanJSON(value interface{}, dst interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// invalidf builds an ErrInvalidDocument error.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidDocument, fmt.Sprintf(format, args...))
}

// splitKnown decodes a JSON object into raw members, moves the members named in
// known out of the map into their typed destinations and returns what is left.
// Unknown members are kept so that documents round-trip without loss.
func splitKnown(data []byte, known map[string]func(json.RawMessage) error) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for key, decode := range known {
		raw, ok := members[key]
		if !ok {
			continue
		}
		delete(members, key)
		if err := decode(raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}
	if len(members) == 0 {
		return nil, nil
	}
	return members, nil
}

// joinKnown is the inverse of splitKnown: typed members win over extras with the same key.
// encoding/json sorts map keys, so the output is deterministic.
func joinKnown(extra map[string]json.RawMessage, typed map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+len(typed))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range typed {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

// decodeInto returns a decoder closure for splitKnown.
func decodeInto(dst any) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		if string(raw) == "null" {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}
}
