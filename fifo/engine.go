// Package fifo implements the FIFO lot-accounting engine: per
// (politician, ticker) a queue of buy lots is consumed head-first as
// sells arrive, emitting closed trades and accumulating realized P&L.
// The engine is intentionally synchronous — spec §4.7 calls it "inherently
// sequential and cheap," so there is no concurrency here to get wrong.
package fifo

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/data"
)

// epsilon is the float comparison tolerance used throughout FIFO
// matching, per spec §4.7.
const epsilon = 1e-4

// Position tracks the open lots and realized P&L for one (politician,
// ticker) pair as transactions are replayed against it.
type Position struct {
	PoliticianID string
	Ticker       string
	Sector       string

	lots        []data.Lot
	realizedPnL float64
}

// NewPosition starts an empty position for (politicianID, ticker).
func NewPosition(politicianID, ticker, sector string) *Position {
	return &Position{PoliticianID: politicianID, Ticker: ticker, Sector: sector}
}

// SharesHeld sums the shares remaining across all open lots.
func (p *Position) SharesHeld() float64 {
	total := 0.0
	for _, l := range p.lots {
		total += l.Shares
	}
	return total
}

// RealizedPnL returns the accumulated realized profit/loss.
func (p *Position) RealizedPnL() float64 {
	return p.realizedPnL
}

// Snapshot exports the position's current residual state.
func (p *Position) Snapshot() data.Position {
	lots := make([]data.Lot, len(p.lots))
	copy(lots, p.lots)
	return data.Position{
		PoliticianID: p.PoliticianID,
		Ticker:       p.Ticker,
		Sector:       p.Sector,
		Lots:         lots,
		RealizedPnL:  p.realizedPnL,
	}
}

// Buy (or Receive) appends a new lot to the tail of the queue.
func (p *Position) Buy(shares, price float64, txDate time.Time, benchmarkPrice *float64, isSectorBenchmark bool) {
	p.lots = append(p.lots, data.Lot{
		Shares:            shares,
		CostBasis:         price,
		TxDate:            txDate,
		BenchmarkPrice:    benchmarkPrice,
		IsSectorBenchmark: isSectorBenchmark,
	})
}

// Sell matches N shares at price P against the head of the lot queue,
// FIFO order, emitting one closed trade per lot consumed. If the queue
// empties before N shares are matched, the sell is truncated at what the
// queue held — the caller gets a partial match plus an oversell warning,
// never a negative position (spec §4.7, §7 "Oversold position").
func (p *Position) Sell(shares, price float64, sellDate time.Time, benchmarkPrice *float64, isSectorBenchmark bool, log zerolog.Logger) []data.ClosedTrade {
	remaining := shares
	var closed []data.ClosedTrade

	for remaining > epsilon && len(p.lots) > 0 {
		lot := &p.lots[0]
		k := lot.Shares
		if remaining < k {
			k = remaining
		}

		closed = append(closed, data.ClosedTrade{
			PoliticianID:          p.PoliticianID,
			Ticker:                p.Ticker,
			Sector:                p.Sector,
			Shares:                k,
			BuyPrice:              lot.CostBasis,
			SellPrice:             price,
			BuyDate:               lot.TxDate,
			SellDate:              sellDate,
			BuyBenchmarkPrice:     lot.BenchmarkPrice,
			SellBenchmarkPrice:    benchmarkPrice,
			BuyIsSectorBenchmark:  lot.IsSectorBenchmark,
			SellIsSectorBenchmark: isSectorBenchmark,
		})

		p.realizedPnL += k * (price - lot.CostBasis)
		lot.Shares -= k
		remaining -= k

		if lot.Shares < epsilon {
			p.lots = p.lots[1:]
		}
	}

	if remaining > epsilon {
		log.Warn().
			Str("politician_id", p.PoliticianID).
			Str("ticker", p.Ticker).
			Float64("remaining_shares", remaining).
			Msg("oversold position: sell exceeds held shares, truncating")
	}

	return closed
}

// Exchange is a logged no-op — spec §4.7 treats exchanges as carrying no
// cost-basis information worth acting on.
func (p *Position) Exchange(log zerolog.Logger) {
	log.Debug().
		Str("politician_id", p.PoliticianID).
		Str("ticker", p.Ticker).
		Msg("exchange transaction: no-op")
}

// Unknown is a logged no-op for transaction kinds the engine doesn't
// recognize.
func (p *Position) Unknown(kind data.TransactionKind, log zerolog.Logger) {
	log.Warn().
		Str("politician_id", p.PoliticianID).
		Str("ticker", p.Ticker).
		Str("kind", string(kind)).
		Msg("unknown transaction kind: no-op")
}
