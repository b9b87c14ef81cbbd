package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Float
		want string
	}{
		{"finite", 2.5, "2.5"},
		{"zero", 0, "0"},
		{"nan", Float(math.NaN()), "null"},
		{"inf", Float(math.Inf(1)), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	var decoded ColumnStats
	require.NoError(t, json.Unmarshal([]byte(`{"mean":1.5,"std":null,"min":1,"max":2}`), &decoded))
	assert.Equal(t, Float(1.5), decoded.Mean)
	assert.True(t, decoded.Std.IsNaN())
	assert.Nil(t, decoded.Median)
}

func TestFloatString(t *testing.T) {
	assert.Equal(t, "1797.80", Float(1797.8).String())
	assert.Equal(t, "2.00", Float(2).String())
	assert.Equal(t, "NaN", Float(math.NaN()).String())
}
