package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductByCity_NullCells(t *testing.T) {
	v := 12.5
	m := ProductByCity{
		Cities:   []string{"Boston"},
		Products: []string{"A", "B"},
		Values:   [][]*float64{{&v, nil}},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cities":["Boston"],"products":["A","B"],"values":[[12.5,null]]}`, string(data))
}

func TestKPIs_RevenueIsExact(t *testing.T) {
	k := KPIs{Revenue: decimal.RequireFromString("1459.48"), RevenueDisplay: "$1,459.48"}

	data, err := json.Marshal(k)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "1459.48", decoded["revenue"])
	assert.Equal(t, "$1,459.48", decoded["revenue_display"])
}

func TestKPIs_RevenueFixedScale(t *testing.T) {
	tests := []struct {
		revenue string
		want    string
	}{
		{revenue: "15", want: "15.00"},
		{revenue: "0", want: "0.00"},
		{revenue: "11.9", want: "11.90"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(KPIs{Revenue: decimal.RequireFromString(tt.revenue), Cities: 2})
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, tt.want, decoded["revenue"], tt.revenue)
		assert.EqualValues(t, 2, decoded["cities"])

		var back KPIs
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, decimal.RequireFromString(tt.revenue).Equal(back.Revenue))
	}
}
