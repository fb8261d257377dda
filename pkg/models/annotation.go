package models

import (
	"encoding/json"
)

// AnnotationMatch records whether the annotation was accepted and why.
type AnnotationMatch struct {
	Value  bool   `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// AnnotationMeta is the annotation summary document kept on columns and cells.
// Unrecognized members are preserved in Extra.
type AnnotationMeta struct {
	Annotated    bool
	Match        *AnnotationMatch
	HighestScore *float64
	LowestScore  *float64
	Extra        map[string]json.RawMessage
}

// IsZero reports whether the document carries no information.
func (a AnnotationMeta) IsZero() bool {
	return !a.Annotated && a.Match == nil && a.HighestScore == nil && a.LowestScore == nil && len(a.Extra) == 0
}

// MarshalJSON implements json.Marshaler. An empty document marshals as {}.
func (a AnnotationMeta) MarshalJSON() ([]byte, error) {
	typed := map[string]any{}
	if a.Annotated {
		typed["annotated"] = true
	}
	if a.Match != nil {
		typed["match"] = a.Match
	}
	if a.HighestScore != nil {
		typed["highestScore"] = *a.HighestScore
	}
	if a.LowestScore != nil {
		typed["lowestScore"] = *a.LowestScore
	}
	return joinKnown(a.Extra, typed)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AnnotationMeta) UnmarshalJSON(data []byte) error {
	var out AnnotationMeta
	extra, err := splitKnown(data, map[string]func(json.RawMessage) error{
		"annotated":    decodeInto(&out.Annotated),
		"match":        decodeInto(&out.Match),
		"highestScore": decodeInto(&out.HighestScore),
		"lowestScore":  decodeInto(&out.LowestScore),
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	*a = out
	return nil
}

// Scan implements sql.Scanner for reading JSONB from database.
func (a *AnnotationMeta) Scan(value interface{}) error {
	*a = AnnotationMeta{}
	return scanJSON(value, a)
}

// Value implements driver.Valuer for writing JSONB to database.
func (a AnnotationMeta) Value() (interface{}, error) {
	return json.Marshal(a)
}
