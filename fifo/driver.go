package fifo

import (
	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/data"
)

// positionKey identifies one (politician, ticker) position.
type positionKey struct {
	politicianID string
	ticker       string
}

// Result is the output of a full FIFO replay: every closed trade emitted,
// plus the residual (still-open) position per (politician, ticker).
type Result struct {
	ClosedTrades []data.ClosedTrade
	Positions    map[string]map[string]data.Position // politicianID -> ticker -> position
}

// ProcessTrades replays a chronologically ordered list of transactions
// through the FIFO engine, dispatching each by TransactionKind into a
// per-(politician, ticker) Position (spec §4.7 driver). Inputs must
// already be sorted by TransactionDate — the engine trusts the caller's
// ordering rather than re-sorting, since callers source rows from the
// store where the ordering is a query-level concern.
func ProcessTrades(inputs []data.FIFOInput, log zerolog.Logger) Result {
	positions := make(map[positionKey]*Position)
	var closed []data.ClosedTrade

	for _, in := range inputs {
		key := positionKey{politicianID: in.PoliticianID, ticker: in.Ticker}
		pos, ok := positions[key]
		if !ok {
			pos = NewPosition(in.PoliticianID, in.Ticker, in.Sector)
			positions[key] = pos
		}

		switch in.Kind {
		case data.TxBuy, data.TxReceive:
			pos.Buy(in.Shares, in.Price, in.TransactionDate, in.BenchmarkPrice, in.IsSectorBenchmark)
		case data.TxSell:
			trades := pos.Sell(in.Shares, in.Price, in.TransactionDate, in.BenchmarkPrice, in.IsSectorBenchmark, log)
			closed = append(closed, trades...)
		case data.TxExchange:
			pos.Exchange(log)
		default:
			pos.Unknown(in.Kind, log)
		}
	}

	out := Result{
		ClosedTrades: closed,
		Positions:    make(map[string]map[string]data.Position),
	}
	for key, pos := range positions {
		byTicker, ok := out.Positions[key.politicianID]
		if !ok {
			byTicker = make(map[string]data.Position)
			out.Positions[key.politicianID] = byTicker
		}
		byTicker[key.ticker] = pos.Snapshot()
	}
	return out
}
