package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitoltrack/pvintel/data"
)

func TestAbsoluteReturn(t *testing.T) {
	assert.InDelta(t, 50.0, AbsoluteReturn(40, 60), 1e-9)
}

func TestHoldingDays(t *testing.T) {
	buy := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sell := buy.AddDate(0, 0, 365)
	assert.Equal(t, 365, HoldingDays(buy, sell))
}

func TestAnnualizedReturn_ShortHoldBelowThreshold(t *testing.T) {
	_, ok := AnnualizedReturn(10, 29)
	assert.False(t, ok)
}

func TestAnnualizedReturn_OneYearMatchesAbsoluteReturn(t *testing.T) {
	annualized, ok := AnnualizedReturn(20, 365)
	assert.True(t, ok)
	assert.InDelta(t, 20.0, annualized, 0.1)
}

func TestClassifyBenchmark(t *testing.T) {
	sectorPrice := 100.0
	spyPrice := 200.0

	sectorTrade := data.ClosedTrade{BuyIsSectorBenchmark: true, SellIsSectorBenchmark: true, BuyBenchmarkPrice: &sectorPrice, SellBenchmarkPrice: &sectorPrice}
	assert.Equal(t, BenchmarkSector, ClassifyBenchmark(sectorTrade))

	spyTrade := data.ClosedTrade{BuyBenchmarkPrice: &spyPrice, SellBenchmarkPrice: &spyPrice}
	assert.Equal(t, BenchmarkSPY, ClassifyBenchmark(spyTrade))

	mixedTrade := data.ClosedTrade{BuyIsSectorBenchmark: true, BuyBenchmarkPrice: &sectorPrice, SellBenchmarkPrice: &spyPrice}
	assert.Equal(t, BenchmarkNone, ClassifyBenchmark(mixedTrade))

	noBenchmarkTrade := data.ClosedTrade{}
	assert.Equal(t, BenchmarkNone, ClassifyBenchmark(noBenchmarkTrade))
}

func TestBuildTradeMetric_FIFOTwoLotsExample(t *testing.T) {
	// spec §8 scenario 1: sell of 70 from two lots produces (50,40->80)
	// and (20,60->80) with combined realized pnl 2400.
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jun1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t1 := data.ClosedTrade{Shares: 50, BuyPrice: 40, SellPrice: 80, BuyDate: jan1, SellDate: jun1}
	m1 := BuildTradeMetric(t1)
	assert.InDelta(t, 100.0, m1.AbsoluteReturn, 1e-9)
}
