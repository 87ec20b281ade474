package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectInt(t *testing.T) {
	o, ok := decodeObject([]byte(`{"a": 3, "b": "42", "c": 1.5, "d": 1e30, "e": -1e30, "f": null, "g": 9007199254740992}`))
	require.True(t, ok)

	tests := []struct {
		key  string
		want int64
		ok   bool
	}{
		{"a", 3, true},
		{"b", 42, true},
		{"c", 0, false},
		{"d", 0, false},
		{"e", 0, false},
		{"f", 0, false},
		{"g", 9007199254740992, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := o.Int(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
