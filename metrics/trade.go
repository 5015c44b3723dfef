// Package metrics computes the derived analytics spec §4.10 describes:
// trade-level return/alpha metrics, per-politician aggregation with
// percentile ranking, anomaly detection (pre-move, unusual volume,
// sector concentration, a composite score), and the committee-trading
// conflict-of-interest metric.
package metrics

import (
	"math"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// BenchmarkKind classifies which benchmark a closed trade's alpha was
// computed against.
type BenchmarkKind string

const (
	BenchmarkSector BenchmarkKind = "sector"
	BenchmarkSPY    BenchmarkKind = "spy"
	BenchmarkNone   BenchmarkKind = "none"
)

// TradeMetric is the derived-metric row for one closed trade.
type TradeMetric struct {
	Trade data.ClosedTrade

	AbsoluteReturn float64
	HoldingDays    *int
	AnnualizedReturn *float64
	BenchmarkKind  BenchmarkKind
	BenchmarkReturn *float64
	SimpleAlpha    *float64
}

// AbsoluteReturn is (sell-buy)/buy * 100.
func AbsoluteReturn(buyPrice, sellPrice float64) float64 {
	return (sellPrice - buyPrice) / buyPrice * 100
}

// HoldingDays is sell_date - buy_date in whole days. Both dates are
// assumed already-parsed time.Time values — the spec's "None if either
// date fails to parse" clause is a parse-time concern the caller (the
// row builder reading from the store) handles before reaching here.
func HoldingDays(buyDate, sellDate time.Time) int {
	return int(sellDate.Sub(buyDate).Hours() / 24)
}

// AnnualizedReturn compounds the absolute return r (percent) over days
// to an annualized percentage. Returns false for days < 30 — too short
// a holding period for annualization to be meaningful (spec §4.10).
func AnnualizedReturn(r float64, days int) (float64, bool) {
	if days < 30 {
		return 0, false
	}
	annualized := (math.Pow(1+r/100, 365.0/float64(days)) - 1) * 100
	return annualized, true
}

// SimpleAlpha is trade return minus benchmark return.
func SimpleAlpha(tradeReturn, benchmarkReturn float64) float64 {
	return tradeReturn - benchmarkReturn
}

// ClassifyBenchmark determines which benchmark, if any, a closed
// trade's alpha is measured against: "sector" when both sides are
// flagged sector-benchmark, "spy" when neither side is sector-flagged
// but both sides carry a benchmark price, "none" otherwise (mixed
// flagging, or a missing benchmark price on either side).
func ClassifyBenchmark(t data.ClosedTrade) BenchmarkKind {
	if t.BuyIsSectorBenchmark && t.SellIsSectorBenchmark {
		return BenchmarkSector
	}
	if !t.BuyIsSectorBenchmark && !t.SellIsSectorBenchmark &&
		t.BuyBenchmarkPrice != nil && t.SellBenchmarkPrice != nil {
		return BenchmarkSPY
	}
	return BenchmarkNone
}

// BuildTradeMetric computes every trade-level metric for a single
// closed trade.
func BuildTradeMetric(t data.ClosedTrade) TradeMetric {
	m := TradeMetric{
		Trade:          t,
		AbsoluteReturn: AbsoluteReturn(t.BuyPrice, t.SellPrice),
		BenchmarkKind:  ClassifyBenchmark(t),
	}

	days := HoldingDays(t.BuyDate, t.SellDate)
	m.HoldingDays = &days

	if annualized, ok := AnnualizedReturn(m.AbsoluteReturn, days); ok {
		m.AnnualizedReturn = &annualized
	}

	if m.BenchmarkKind != BenchmarkNone && t.BuyBenchmarkPrice != nil && t.SellBenchmarkPrice != nil {
		benchmarkReturn := AbsoluteReturn(*t.BuyBenchmarkPrice, *t.SellBenchmarkPrice)
		alpha := SimpleAlpha(m.AbsoluteReturn, benchmarkReturn)
		m.BenchmarkReturn = &benchmarkReturn
		m.SimpleAlpha = &alpha
	}

	return m
}
