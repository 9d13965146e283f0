package storeitem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

func TestDisplayOverrides(t *testing.T) {
	si := New(id.New(), id.New())

	assert.Equal(t, "Nitrile Gloves", si.DisplayName("Nitrile Gloves"))
	assert.Equal(t, "GLV-001", si.DisplaySKU("GLV-001"))

	local := "Gloves (ER stock)"
	localSKU := "ER-GLV"
	si.LocalName = &local
	si.LocalSKU = &localSKU
	assert.Equal(t, "Gloves (ER stock)", si.DisplayName("Nitrile Gloves"))
	assert.Equal(t, "ER-GLV", si.DisplaySKU("GLV-001"))

	// Empty overrides fall back to the master values.
	empty := ""
	si.LocalName = &empty
	assert.Equal(t, "Nitrile Gloves", si.DisplayName("Nitrile Gloves"))
}

func TestSeverity(t *testing.T) {
	si := New(id.New(), id.New())
	si.ReorderPoint = types.NewQuantityFromInt(20)
	si.SafetyStock = types.NewQuantityFromInt(5)

	cases := []struct {
		qty  int64
		want StockSeverity
	}{
		{100, SeverityNormal},
		{21, SeverityNormal},
		{20, SeverityWarning},
		{6, SeverityWarning},
		{5, SeverityCritical},
		{0, SeverityCritical},
	}
	for _, tc := range cases {
		si.Quantity = types.NewQuantityFromInt(tc.qty)
		assert.Equal(t, tc.want, si.Severity(), "qty=%d", tc.qty)
	}
}

func TestValidate(t *testing.T) {
	si := New(id.New(), id.New())
	assert.NoError(t, si.Validate(context.Background()))

	si.ReorderPoint = types.NewQuantityFromInt(-1)
	assert.Error(t, si.Validate(context.Background()))

	si = New(id.ID{}, id.New())
	assert.Error(t, si.Validate(context.Background()))
}
