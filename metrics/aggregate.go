package metrics

import "sort"

// PoliticianAggregate summarizes one politician's closed-trade metrics.
type PoliticianAggregate struct {
	PoliticianID string

	TotalTrades int
	Winners     int
	WinRate     float64

	MeanAbsoluteReturn float64
	MeanAlphaSector    *float64
	MeanAlphaSPY       *float64
	MeanHoldingDays    int

	PercentileRank float64
}

// AggregateByPolitician groups trade metrics by politician and computes
// per-politician summary stats, per spec §4.10's "aggregation per
// politician" paragraph. Percentile rank is filled in by RankByReturn
// after all politicians in the pool are known — it is not computable
// from one politician's metrics alone.
func AggregateByPolitician(metrics []TradeMetric) []PoliticianAggregate {
	grouped := make(map[string][]TradeMetric)
	var order []string
	for _, m := range metrics {
		id := m.Trade.PoliticianID
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], m)
	}

	aggregates := make([]PoliticianAggregate, 0, len(order))
	for _, id := range order {
		aggregates = append(aggregates, aggregateOne(id, grouped[id]))
	}
	return aggregates
}

func aggregateOne(politicianID string, trades []TradeMetric) PoliticianAggregate {
	agg := PoliticianAggregate{PoliticianID: politicianID, TotalTrades: len(trades)}

	var sumReturn float64
	var sumHoldingDays int
	var sumAlphaSector, sumAlphaSPY float64
	var countAlphaSector, countAlphaSPY int

	for _, m := range trades {
		sumReturn += m.AbsoluteReturn
		if m.AbsoluteReturn > 0 {
			agg.Winners++
		}
		if m.HoldingDays != nil {
			sumHoldingDays += *m.HoldingDays
		}
		if m.SimpleAlpha != nil {
			switch m.BenchmarkKind {
			case BenchmarkSector:
				sumAlphaSector += *m.SimpleAlpha
				countAlphaSector++
			case BenchmarkSPY:
				sumAlphaSPY += *m.SimpleAlpha
				countAlphaSPY++
			}
		}
	}

	n := float64(len(trades))
	agg.WinRate = float64(agg.Winners) / n * 100
	agg.MeanAbsoluteReturn = sumReturn / n
	agg.MeanHoldingDays = sumHoldingDays / len(trades)

	if countAlphaSector > 0 {
		mean := sumAlphaSector / float64(countAlphaSector)
		agg.MeanAlphaSector = &mean
	}
	if countAlphaSPY > 0 {
		mean := sumAlphaSPY / float64(countAlphaSPY)
		agg.MeanAlphaSPY = &mean
	}

	return agg
}

// RankByReturn sorts aggregates descending by MeanAbsoluteReturn and
// assigns each a percentile rank: index i in [0, n-1] gets 1 - i/(n-1),
// with n=1 mapping to 1.0. Must be called after any filter narrows the
// pool, since the rank is pool-relative (spec §4.10).
func RankByReturn(aggregates []PoliticianAggregate) []PoliticianAggregate {
	ranked := make([]PoliticianAggregate, len(aggregates))
	copy(ranked, aggregates)

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].MeanAbsoluteReturn > ranked[j].MeanAbsoluteReturn
	})

	n := len(ranked)
	for i := range ranked {
		if n == 1 {
			ranked[i].PercentileRank = 1.0
			continue
		}
		ranked[i].PercentileRank = 1 - float64(i)/float64(n-1)
	}
	return ranked
}
