package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: 12345})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 123.45}`, string(b))

	tests := []struct {
		in   string
		want Money
	}{
		{in: `10`, want: 1000},
		{in: `0.1`, want: 10},
		{in: `"99.99"`, want: 9999},
		{in: `2.5`, want: 250},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Money
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, tt.want, m)
		})
	}

	var m Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}
