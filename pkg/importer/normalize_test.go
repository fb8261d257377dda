package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"City", "City"},
		{"  City ", "City"},
		{"\ufeffCity", "City"},
		{"ï»¿City", "City"},
		{"ï»¿ï»¿City", "City"},
		{"Cafe\u0301", "Caf\u00e9"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeColumnName(tt.in), "input %q", tt.in)
	}
}

func TestObjectMembersKeepsOrder(t *testing.T) {
	members, err := objectMembers([]byte(`{"b": 1, "a": {"x": [1, 2]}, "c": null}`))
	assert.NoError(t, err)
	if assert.Len(t, members, 3) {
		assert.Equal(t, "b", members[0].Key)
		assert.Equal(t, "a", members[1].Key)
		assert.JSONEq(t, `{"x": [1, 2]}`, string(members[1].Value))
		assert.Equal(t, "c", members[2].Key)
	}

	members, err = objectMembers([]byte(`null`))
	assert.NoError(t, err)
	assert.Empty(t, members)

	_, err = objectMembers([]byte(`[1]`))
	assert.Error(t, err)
}

func TestParseRowKey(t *testing.T) {
	n, err := parseRowKey("r12")
	assert.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = parseRowKey("3")
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"", "r", "row1", "r-2"} {
		_, err := parseRowKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruthy(t *testing.T) {
	for _, raw := range []string{`"x"`, `true`, `[]`, `{}`, `1`} {
		assert.True(t, truthy([]byte(raw)), raw)
	}
	for _, raw := range []string{``, `null`, `false`, `0`, `""`} {
		assert.False(t, truthy([]byte(raw)), raw)
	}
}
