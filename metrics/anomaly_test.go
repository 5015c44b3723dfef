package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitoltrack/pvintel/data"
)

func TestDetectPreMoves_BuyBeforeRise(t *testing.T) {
	// spec §8 scenario 2: buy at $100, 30-day price $115, threshold 10
	// -> one signal, delta=15, direction=buy_before_rise.
	trades := []TradeWithFollowUpPrice{
		{PoliticianID: "P1", Ticker: "AAPL", Kind: data.TxBuy, TradePrice: 100, Price30DaysOut: 115},
	}
	signals := DetectPreMoves(trades, DefaultPreMoveThreshold)
	assert.Len(t, signals, 1)
	assert.InDelta(t, 15.0, signals[0].DeltaPct, 1e-9)
	assert.Equal(t, "buy_before_rise", signals[0].Direction)
}

func TestDetectPreMoves_BelowThresholdNoSignal(t *testing.T) {
	trades := []TradeWithFollowUpPrice{
		{PoliticianID: "P1", Ticker: "AAPL", Kind: data.TxBuy, TradePrice: 100, Price30DaysOut: 105},
	}
	signals := DetectPreMoves(trades, DefaultPreMoveThreshold)
	assert.Empty(t, signals)
}

func TestDetectPreMoves_ExactThresholdNoSignal(t *testing.T) {
	// A move of exactly the threshold must not itself signal — only a
	// move strictly exceeding it does.
	trades := []TradeWithFollowUpPrice{
		{PoliticianID: "P1", Ticker: "AAPL", Kind: data.TxBuy, TradePrice: 100, Price30DaysOut: 110},
	}
	signals := DetectPreMoves(trades, DefaultPreMoveThreshold)
	assert.Empty(t, signals)
}

func TestDetectUnusualVolume_ZeroHistoryNotUnusual(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	result := DetectUnusualVolume("P1", nil, ref, 7*24*time.Hour, 30*24*time.Hour)
	assert.InDelta(t, 0.0, result.Ratio, 1e-9)
	assert.False(t, result.Unusual)
}

func TestDetectUnusualVolume_HighRecentFlagged(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lookback := 7 * 24 * time.Hour
	baseline := 28 * 24 * time.Hour // 4x the lookback window

	var dates []time.Time
	// 8 trades in the recent 7-day window
	for i := 0; i < 8; i++ {
		dates = append(dates, ref.Add(-time.Duration(i)*time.Hour))
	}
	// 4 trades strictly inside the preceding 28-day historical window
	// (clear of the recentStart/histEnd boundary at ref-7d)
	for i := 1; i <= 4; i++ {
		dates = append(dates, ref.Add(-lookback-time.Duration(i)*6*24*time.Hour))
	}

	result := DetectUnusualVolume("P1", dates, ref, lookback, baseline)
	assert.Equal(t, 8, result.Recent)
	assert.True(t, result.Ratio > 2.0)
	assert.True(t, result.Unusual)
}

func TestComputeHHI_FourEqualSectors(t *testing.T) {
	// spec §8 scenario 3: four equal-value positions across four
	// distinct sectors -> HHI=0.25, not concentrated.
	positions := []SectorPosition{
		{Sector: "Financials", Value: 1000},
		{Sector: "Energy", Value: 1000},
		{Sector: "Health Care", Value: 1000},
		{Sector: "Materials", Value: 1000},
	}
	result := ComputeHHI(positions)
	assert.InDelta(t, 0.25, result.HHI, 1e-9)
	assert.False(t, result.Concentrated)
}

func TestComputeHHI_TwoEqualSectors(t *testing.T) {
	positions := []SectorPosition{
		{Sector: "Financials", Value: 1000},
		{Sector: "Energy", Value: 1000},
	}
	result := ComputeHHI(positions)
	assert.InDelta(t, 0.5, result.HHI, 1e-9)
	assert.True(t, result.Concentrated)
}

func TestComputeHHI_FiltersUnknownSectorAndNegativeValue(t *testing.T) {
	// spec §8 scenario 3: one sector=none, one value=-1, one valid
	// $5000 Information Technology position -> HHI=1.0.
	positions := []SectorPosition{
		{Sector: "", Value: 2000},
		{Sector: "Energy", Value: -1},
		{Sector: "Information Technology", Value: 5000},
	}
	result := ComputeHHI(positions)
	assert.InDelta(t, 1.0, result.HHI, 1e-9)
	assert.Equal(t, "Information Technology", result.DominantSector)
}

func TestComputeHHI_Empty(t *testing.T) {
	result := ComputeHHI(nil)
	assert.InDelta(t, 0.0, result.HHI, 1e-9)
	assert.False(t, result.Concentrated)
}

func TestComputeCompositeScore(t *testing.T) {
	score := ComputeCompositeScore(5, 2.5, 0.3)
	// components: 0.5, 0.5, 0.3 -> mean 0.4333..., confidence 1.0
	assert.InDelta(t, (0.5+0.5+0.3)/3, score.Score, 1e-9)
	assert.InDelta(t, 1.0, score.Confidence, 1e-9)
}

func TestComputeCompositeScore_CapsAt1(t *testing.T) {
	score := ComputeCompositeScore(100, 100, 100)
	assert.InDelta(t, 1.0, score.Score, 1e-9)
}

func TestComputeCompositeScore_ZeroComponentsLowerConfidence(t *testing.T) {
	score := ComputeCompositeScore(0, 0, 0.3)
	assert.InDelta(t, 1.0/3.0, score.Confidence, 1e-9)
}
