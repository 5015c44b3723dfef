package metrics

import (
	"fmt"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// PreMoveSignal flags a trade whose price moved sharply in the 30 days
// after the transaction date — a possible information-timing anomaly.
type PreMoveSignal struct {
	PoliticianID string
	Ticker       string
	TradeDate    time.Time
	DeltaPct     float64
	Direction    string // "buy_before_rise" | "buy_before_drop" | "sell_before_rise" | "sell_before_drop"
}

// TradeWithFollowUpPrice is one trade plus its price 30 days later, the
// input PreMoveSignals needs.
type TradeWithFollowUpPrice struct {
	PoliticianID   string
	Ticker         string
	Kind           data.TransactionKind
	TradeDate      time.Time
	TradePrice     float64
	Price30DaysOut float64
}

// DefaultPreMoveThreshold is the caller-overridable default from spec
// §4.10.
const DefaultPreMoveThreshold = 10.0

// DetectPreMoves scans trades with a known 30-day-out price and emits a
// signal for each whose absolute percent move exceeds threshold.
func DetectPreMoves(trades []TradeWithFollowUpPrice, threshold float64) []PreMoveSignal {
	var signals []PreMoveSignal
	for _, t := range trades {
		deltaPct := (t.Price30DaysOut - t.TradePrice) / t.TradePrice * 100
		if deltaPct >= -threshold && deltaPct <= threshold {
			continue
		}

		rising := deltaPct > 0
		side := "buy"
		if t.Kind == data.TxSell {
			side = "sell"
		}
		direction := fmt.Sprintf("%s_before_%s", side, riseOrDrop(rising))

		signals = append(signals, PreMoveSignal{
			PoliticianID: t.PoliticianID,
			Ticker:       t.Ticker,
			TradeDate:    t.TradeDate,
			DeltaPct:     deltaPct,
			Direction:    direction,
		})
	}
	return signals
}

func riseOrDrop(rising bool) string {
	if rising {
		return "rise"
	}
	return "drop"
}

// UnusualVolumeResult is the volume-ratio anomaly outcome for one
// politician at one reference date.
type UnusualVolumeResult struct {
	PoliticianID string
	ReferenceDate time.Time
	Recent       int
	Average      float64
	Ratio        float64
	Unusual      bool
}

// unusualVolumeThreshold is the ratio above which volume is flagged.
const unusualVolumeThreshold = 2.0

// DetectUnusualVolume compares trade counts in a recent window
// [ref-L, ref] against a historical baseline window [ref-L-B, ref-L),
// scaled to the same length, per spec §4.10.
func DetectUnusualVolume(politicianID string, tradeDates []time.Time, ref time.Time, lookback, baseline time.Duration) UnusualVolumeResult {
	recentStart := ref.Add(-lookback)
	histStart := ref.Add(-lookback - baseline)
	histEnd := recentStart

	recent := 0
	hist := 0
	for _, d := range tradeDates {
		if !d.Before(recentStart) && !d.After(ref) {
			recent++
		}
		if !d.Before(histStart) && d.Before(histEnd) {
			hist++
		}
	}

	average := 0.0
	ratio := 0.0
	if hist > 0 {
		scale := baseline.Hours() / lookback.Hours()
		average = float64(hist) / scale
		if average > 0 {
			ratio = float64(recent) / average
		}
	}

	return UnusualVolumeResult{
		PoliticianID:  politicianID,
		ReferenceDate: ref,
		Recent:        recent,
		Average:       average,
		Ratio:         ratio,
		Unusual:       ratio > unusualVolumeThreshold,
	}
}

// SectorPosition is the minimal shape HHI needs from a position.
type SectorPosition struct {
	Sector string // "" means unknown sector
	Value  float64
}

// hhiFlagThreshold is the HHI above which (strictly) a politician's
// positions are flagged as sector-concentrated.
const hhiFlagThreshold = 0.25

// HHIResult carries the Herfindahl-Hirschman concentration index and
// the dominant sector it was computed over.
type HHIResult struct {
	HHI            float64
	DominantSector string
	Concentrated   bool
}

// ComputeHHI filters to positions with a known sector and positive
// value, computes sector weights as fractions of total value, and sums
// their squares. Empty/all-filtered input yields HHI=0, not
// concentrated (spec §8 boundary behavior).
func ComputeHHI(positions []SectorPosition) HHIResult {
	bySector := make(map[string]float64)
	var order []string
	total := 0.0

	for _, p := range positions {
		if p.Sector == "" || p.Value <= 0 {
			continue
		}
		if _, ok := bySector[p.Sector]; !ok {
			order = append(order, p.Sector)
		}
		bySector[p.Sector] += p.Value
		total += p.Value
	}

	if total <= 0 {
		return HHIResult{}
	}

	hhi := 0.0
	dominant := ""
	dominantValue := -1.0
	for _, sector := range order {
		weight := bySector[sector] / total
		hhi += weight * weight
		if bySector[sector] > dominantValue {
			dominantValue = bySector[sector]
			dominant = sector
		}
	}

	return HHIResult{
		HHI:            hhi,
		DominantSector: dominant,
		Concentrated:   hhi > hhiFlagThreshold,
	}
}

// CompositeScore is the normalized blend of the three anomaly signals
// for one politician, per spec §4.10.
type CompositeScore struct {
	Score      float64
	Confidence float64
}

// ComputeCompositeScore normalizes pre-move count / 10, volume ratio /
// 5, and HHI directly — each capped at 1.0 — and averages them.
// Confidence is the fraction of the three components that are strictly
// positive.
func ComputeCompositeScore(preMoveCount int, volumeRatio, hhi float64) CompositeScore {
	components := [3]float64{
		capAt1(float64(preMoveCount) / 10),
		capAt1(volumeRatio / 5),
		capAt1(hhi),
	}

	sum := 0.0
	positive := 0
	for _, c := range components {
		sum += c
		if c > 0 {
			positive++
		}
	}

	return CompositeScore{
		Score:      sum / 3,
		Confidence: float64(positive) / 3,
	}
}

func capAt1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
