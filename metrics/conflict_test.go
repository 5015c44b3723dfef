package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeConflict_Basic(t *testing.T) {
	jurisdictionSectors := map[string]bool{"Financials": true}
	trades := []TradeSector{
		{Sector: "Financials"},
		{Sector: "Energy"},
		{Sector: ""},
	}
	result := ComputeConflict("P1", trades, jurisdictionSectors)

	assert.Equal(t, 1, result.Numerator)
	assert.Equal(t, 2, result.Denominator) // the unknown-sector trade is excluded
	assert.InDelta(t, 50.0, result.Percentage, 1e-9)
	assert.NotEmpty(t, result.Disclaimer)
}

func TestComputeConflict_NoKnownSectorTrades(t *testing.T) {
	result := ComputeConflict("P1", []TradeSector{{Sector: ""}}, map[string]bool{})
	assert.Equal(t, 0, result.Denominator)
	assert.InDelta(t, 0.0, result.Percentage, 1e-9)
}
