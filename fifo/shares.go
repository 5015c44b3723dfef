package fifo

import "github.com/rs/zerolog"

// TradeRange is a disclosed dollar bracket for a trade (spec §4.8).
type TradeRange struct {
	Low  float64
	High float64
}

// Midpoint is the range's center, the basis for share estimation.
func (r TradeRange) Midpoint() float64 {
	return (r.Low + r.High) / 2
}

// ParseTradeRange builds a TradeRange from the disclosed low/high bounds.
// Returns false if either bound is absent, the range is inverted (low >
// high), or both bounds are zero — all invalid-data cases per §4.8.
func ParseTradeRange(low, high *int64) (TradeRange, bool) {
	if low == nil || high == nil {
		return TradeRange{}, false
	}
	if *low > *high {
		return TradeRange{}, false
	}
	if *low == 0 && *high == 0 {
		return TradeRange{}, false
	}
	return TradeRange{Low: float64(*low), High: float64(*high)}, true
}

// ShareEstimate is the result of EstimateShares.
type ShareEstimate struct {
	EstimatedShares float64
	EstimatedValue  float64
}

// EstimateShares derives a share count and dollar value from a trade
// range and the trade-date price (spec §4.8). Returns false if the price
// is non-positive, or if the resulting estimated value falls outside the
// original range — a sanity check against NaN/Inf rather than a
// realistic failure mode with well-formed inputs.
func EstimateShares(r TradeRange, tradeDatePrice float64, log zerolog.Logger) (ShareEstimate, bool) {
	if tradeDatePrice <= 0 {
		return ShareEstimate{}, false
	}

	midpoint := r.Midpoint()
	shares := midpoint / tradeDatePrice
	value := shares * tradeDatePrice

	if value < r.Low || value > r.High {
		log.Warn().
			Float64("estimated_value", value).
			Float64("range_low", r.Low).
			Float64("range_high", r.High).
			Msg("estimated value falls outside range, skipping share estimation")
		return ShareEstimate{}, false
	}

	return ShareEstimate{EstimatedShares: shares, EstimatedValue: value}, true
}
