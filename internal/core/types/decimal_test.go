package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "100.0000", NewQuantityFromInt(100).String())
	assert.Equal(t, "0.2500", NewQuantityFromFloat64(0.25).String())
	assert.Equal(t, "-3.5000", NewQuantityFromFloat64(-3.5).String())
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want Quantity
	}{
		{`12`, NewQuantityFromInt(12)},
		{`12.5`, NewQuantityFromFloat64(12.5)},
		{`"7.25"`, NewQuantityFromFloat64(7.25)},
		{`-0.0001`, Quantity(-1)},
		{`null`, 0},
	}

	for _, tc := range cases {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(tc.in), &q), tc.in)
		assert.Equal(t, tc.want, q, tc.in)
	}
}

func TestQuantityDecimal(t *testing.T) {
	q := NewQuantityFromFloat64(70)
	total := MustMoney("720")

	avg := total.Div(q.Decimal())
	assert.Equal(t, "10.2857142857142857", avg.String())
}

func TestQuantityMin(t *testing.T) {
	a := NewQuantityFromInt(10)
	b := NewQuantityFromInt(3)
	assert.Equal(t, b, a.Min(b))
	assert.Equal(t, b, b.Min(a))
}
