package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBenchmarkTicker_KnownSector(t *testing.T) {
	assert.Equal(t, "XLK", BenchmarkTicker("Information Technology"))
	assert.Equal(t, "XLF", BenchmarkTicker("Financials"))
}

func TestBenchmarkTicker_UnknownOrEmptyFallsBackToSPY(t *testing.T) {
	assert.Equal(t, "SPY", BenchmarkTicker(""))
	assert.Equal(t, "SPY", BenchmarkTicker("Not A Real Sector"))
}
