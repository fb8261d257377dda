package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling documents
// that carry numbers or booleans where a string is expected. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleFloat decodes a number that may have been serialized as a JSON string
// (e.g. "0.523"). ok is false for null, empty or non-numeric input.
func FlexibleFloat(raw json.RawMessage) (value float64, ok bool) {
	if isNull(raw) {
		return 0, false
	}

	if err := json.Unmarshal(raw, &value); err == nil {
		return value, true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// FlexibleBool decodes a boolean that may have been serialized as a string or 0/1.
func FlexibleBool(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	if f, ok := FlexibleFloat(raw); ok {
		return f != 0
	}
	b, _ = strconv.ParseBool(strings.TrimSpace(FlexibleStringValue(raw)))
	return b
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
