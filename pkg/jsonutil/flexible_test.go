package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "string value", input: json.RawMessage(`"Italy"`), want: "Italy"},
		{name: "integer value", input: json.RawMessage(`42`), want: "42"},
		{name: "float value", input: json.RawMessage(`3.14`), want: "3.14"},
		{name: "boolean", input: json.RawMessage(`true`), want: "true"},
		{name: "null value", input: json.RawMessage(`null`), want: ""},
		{name: "nil raw message", input: nil, want: ""},
		{name: "object falls back to raw string", input: json.RawMessage(`{"a":1}`), want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(tt.input))
		})
	}
}

func TestFlexibleFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  json.RawMessage
		want   float64
		wantOK bool
	}{
		{name: "number", input: json.RawMessage(`0.9`), want: 0.9, wantOK: true},
		{name: "numeric string", input: json.RawMessage(`"0.523"`), want: 0.523, wantOK: true},
		{name: "padded string", input: json.RawMessage(`" 1 "`), want: 1, wantOK: true},
		{name: "non numeric string", input: json.RawMessage(`"high"`), wantOK: false},
		{name: "null", input: json.RawMessage(`null`), wantOK: false},
		{name: "missing", input: nil, wantOK: false},
		{name: "boolean", input: json.RawMessage(`true`), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FlexibleFloat(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestFlexibleBool(t *testing.T) {
	assert.True(t, FlexibleBool(json.RawMessage(`true`)))
	assert.True(t, FlexibleBool(json.RawMessage(`"true"`)))
	assert.True(t, FlexibleBool(json.RawMessage(`1`)))
	assert.False(t, FlexibleBool(json.RawMessage(`0`)))
	assert.False(t, FlexibleBool(json.RawMessage(`"no"`)))
	assert.False(t, FlexibleBool(nil))
}
