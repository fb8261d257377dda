package models

import (
	"encoding/json"
	"math"

	"github.com/larasormani21/db-SemTUI/pkg/jsonutil"
)

// CandidateName is the display label and URI of a candidate entity.
type CandidateName struct {
	URI   string `json:"uri"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts both the {uri, value} object and a bare label string.
func (n *CandidateName) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*n = CandidateName{Value: label}
		return nil
	}
	type plain CandidateName
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = CandidateName(p)
	return nil
}

// Candidate is a proposed external entity match for a cell value.
// Members other than id, name, score and match (type, description, features...)
// are preserved in Extra. A candidate decoded without a usable score is written
// back without one, so score thresholds keep ignoring it.
type Candidate struct {
	ID    string
	Name  CandidateName
	Score float64
	Match bool
	Extra map[string]json.RawMessage

	unscored bool
}

// HasScore reports whether the candidate carries a score.
func (c Candidate) HasScore() bool {
	return !c.unscored
}

// Identifies reports whether the candidate is the entity named by uri,
// either through its id or through its name URI.
func (c Candidate) Identifies(uri string) bool {
	return uri != "" && (c.ID == uri || c.Name.URI == uri)
}

// MarshalJSON implements json.Marshaler.
func (c Candidate) MarshalJSON() ([]byte, error) {
	typed := map[string]any{
		"id":    c.ID,
		"name":  c.Name,
		"match": c.Match,
	}
	if !c.unscored {
		typed["score"] = c.Score
	}
	return joinKnown(c.Extra, typed)
}

// UnmarshalJSON implements json.Unmarshaler. Scores and match flags written as
// strings by older exporters are accepted.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var out Candidate
	scored := false
	extra, err := splitKnown(data, map[string]func(json.RawMessage) error{
		"id": func(raw json.RawMessage) error {
			out.ID = jsonutil.FlexibleStringValue(raw)
			return nil
		},
		"name": decodeInto(&out.Name),
		"score": func(raw json.RawMessage) error {
			out.Score, scored = jsonutil.FlexibleFloat(raw)
			return nil
		},
		"match": func(raw json.RawMessage) error {
			out.Match = jsonutil.FlexibleBool(raw)
			return nil
		},
	})
	if err != nil {
		return err
	}
	out.Extra = extra
	out.unscored = !scored
	*c = out
	return nil
}

// Candidates is the JSONB candidate list stored on a cell.
type Candidates []Candidate

// Scan implements sql.Scanner for reading JSONB from database.
func (cs *Candidates) Scan(value interface{}) error {
	*cs = Candidates{}
	return scanJSON(value, (*[]Candidate)(cs))
}

// Value implements driver.Valuer for writing JSONB to database.
// A nil list is stored as an empty array, never as JSON null.
func (cs Candidates) Value() (interface{}, error) {
	if cs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Candidate(cs))
}

// Validate checks the invariants of a candidate list before it is written.
func (cs Candidates) Validate() error {
	matches := 0
	for i, c := range cs {
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			return invalidf("candidate %d has a non-finite score", i)
		}
		if c.Match {
			matches++
		}
	}
	if matches > 1 {
		return invalidf("%d candidates are marked as match, at most one is allowed", matches)
	}
	return nil
}

// Matched returns the candidate flagged as match, if any.
func (cs Candidates) Matched() (Candidate, bool) {
	for _, c := range cs {
		if c.Match {
			return c, true
		}
	}
	return Candidate{}, false
}

// NormalizeMatches keeps the first match flag and clears the others.
// It returns a new list; the receiver is not modified.
func (cs Candidates) NormalizeMatches() Candidates {
	out := make(Candidates, len(cs))
	seen := false
	for i, c := range cs {
		if c.Match {
			if seen {
				c.Match = false
			}
			seen = true
		}
		out[i] = c
	}
	return out
}

// PromoteMatch returns a copy of cs with the candidate identified by matchURI
// marked as the match with the given score and moved to the front. Every other
// candidate is marked as not matching and keeps its relative order. When no
// candidate is identified by matchURI a minimal one is synthesized.
//
// If several candidates are identified by matchURI, the first one is promoted
// and the later ones stay in place as non-matches.
func PromoteMatch(cs Candidates, matchURI string, score float64) Candidates {
	out := make(Candidates, 1, len(cs)+1)
	found := false

	for _, c := range cs {
		if !found && c.Identifies(matchURI) {
			c.Match = true
			c.Score = score
			c.unscored = false
			out[0] = c
			found = true
			continue
		}
		c.Match = false
		out = append(out, c)
	}

	if !found {
		out[0] = Candidate{
			ID:    matchURI,
			Name:  CandidateName{URI: matchURI, Value: ""},
			Match: true,
			Score: score,
		}
	}
	return out
}

// CandidateRow is one candidate flattened next to the cell it belongs to.
type CandidateRow struct {
	CellID         int64   `json:"cell_id"`
	ColumnID       int64   `json:"column_id"`
	RowIndex       int     `json:"row_index"`
	CellValue      string  `json:"cell_value"`
	CandidateURI   string  `json:"candidate_uri"`
	CandidateLabel string  `json:"candidate_label"`
	CandidateScore float64 `json:"candidate_score"`
}
