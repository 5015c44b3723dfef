package enrich

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/capitoltrack/pvintel/fifo"
	"github.com/capitoltrack/pvintel/price"
	"github.com/capitoltrack/pvintel/price/yahoo"
	"github.com/capitoltrack/pvintel/price/tiingo"
	"github.com/capitoltrack/pvintel/store"
)

// PriceClients bundles the primary and (optional) fallback historical/
// current price adapters a price-enrichment run uses.
type PriceClients struct {
	Primary  *yahoo.Client
	Fallback *tiingo.Client // nil disables the fallback adapter entirely
}

func (p PriceClients) historicalPrice(ctx context.Context, ticker string, date time.Time) (*float64, string, error) {
	quote, err := p.Primary.GetPriceOnDateWithFallback(ctx, ticker, date)
	if err != nil {
		return nil, "", err
	}
	if quote != nil {
		return quote, "yahoo", nil
	}
	if p.Fallback == nil {
		return nil, "", nil
	}
	quote, err = p.Fallback.GetPriceOnDate(ctx, ticker, date)
	if err != nil {
		return nil, "", err
	}
	if quote != nil {
		return quote, "tiingo", nil
	}
	return nil, "", nil
}

// priceTarget is one (ticker, date) query the dedup pass produced, along
// with every trade id that needs its answer.
type priceTarget struct {
	ticker   string
	date     time.Time
	tradeIDs []int
}

type historicalFetchResult struct {
	price  *float64
	source string
}

// RunHistoricalPriceEnrichment implements spec §4.6.3 phase 1: build the
// (normalized ticker, date) work queue, dedup it, fetch each unique pair
// once with primary-then-fallback, and persist the trade-date price (and,
// where a valid size range is present, the estimated shares/value) for
// every trade sharing that pair. Trades with an invalid date or empty or
// unenrichable ticker are logged and marked attempted; like trades for
// which no price was found, they keep both prices null and so stay in
// PriceEnrichmentQueue for the next run.
func RunHistoricalPriceEnrichment(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	clients PriceClients,
	aliases map[string]price.Alias,
	opts Options,
	batchLimit int,
) Outcome {
	breaker := NewBreaker(opts.FailureThreshold)

	ids, err := st.PriceEnrichmentQueue(ctx, batchLimit)
	if err != nil {
		log.Error().Err(err).Msg("price enrichment: list queue")
		return Outcome{}
	}

	targets := make(map[string]*priceTarget)
	var order []string
	skippedInvalidDate, skippedNoTicker, skippedUnenrichable := 0, 0, 0
	attemptedButSkipped := make([]int, 0)

	for _, id := range ids {
		trade, ticker, _, err := st.GetTrade(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int("trade_id", id).Msg("price enrichment: load trade")
			continue
		}
		if trade.TransactionDate.IsZero() {
			skippedInvalidDate++
			attemptedButSkipped = append(attemptedButSkipped, id)
			continue
		}
		if ticker == "" {
			skippedNoTicker++
			attemptedButSkipped = append(attemptedButSkipped, id)
			continue
		}

		symbol, unenrichable := price.ResolveTicker(aliases, ticker)
		if unenrichable {
			skippedUnenrichable++
			attemptedButSkipped = append(attemptedButSkipped, id)
			continue
		}

		key := symbol + "|" + trade.TransactionDate.Format("2006-01-02")
		t, ok := targets[key]
		if !ok {
			t = &priceTarget{ticker: symbol, date: trade.TransactionDate}
			targets[key] = t
			order = append(order, key)
		}
		t.tradeIDs = append(t.tradeIDs, id)
	}

	if skippedInvalidDate+skippedNoTicker+skippedUnenrichable > 0 {
		log.Warn().
			Int("invalid_date", skippedInvalidDate).
			Int("no_ticker", skippedNoTicker).
			Int("unenrichable", skippedUnenrichable).
			Msg("price enrichment: skipped trades")
	}
	markAttempted(ctx, log, st, attemptedButSkipped)

	items := make([]*priceTarget, 0, len(order))
	for _, key := range order {
		items = append(items, targets[key])
	}

	fetch := func(ctx context.Context, t *priceTarget) (historicalFetchResult, error) {
		p, source, err := clients.historicalPrice(ctx, t.ticker, t.date)
		if err != nil {
			return historicalFetchResult{}, err
		}
		return historicalFetchResult{price: p, source: source}, nil
	}

	firstFailureLogged := make(map[string]bool)

	write := func(ctx context.Context, t *priceTarget, r historicalFetchResult) error {
		if r.price == nil && !firstFailureLogged[t.ticker] {
			firstFailureLogged[t.ticker] = true
			log.Warn().Str("ticker", t.ticker).Msg("price enrichment: no historical price found")
		}

		return st.WithTx(ctx, func(tx *sql.Tx) error {
			for _, id := range t.tradeIDs {
				trade, _, _, err := st.GetTrade(ctx, id)
				if err != nil {
					return err
				}

				var estShares, estValue *float64
				if r.price != nil {
					if rng, ok := fifo.ParseTradeRange(trade.SizeRangeLow, trade.SizeRangeHigh); ok {
						if est, ok := fifo.EstimateShares(rng, *r.price, log); ok {
							estShares = &est.EstimatedShares
							estValue = &est.EstimatedValue
						}
					}
				}

				if err := st.UpdateTradePrices(ctx, tx, id, r.price, nil, nil, r.source, estShares, estValue, time.Now()); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return Run(ctx, log, opts, items, breaker, fetch, write)
}

// RunCurrentPriceEnrichment implements spec §4.6.3 phase 2: for each
// unique normalized ticker among the trades PriceEnrichmentQueue returns
// (never attempted, or holding neither an executed nor a current price),
// fetch the current price and store it. Trades that already hold a
// historical price are not in that queue and get no current price here. Best-effort: a failure
// for one ticker is silently skipped rather than counted against the
// circuit breaker, since phase 2 is advisory (used only for unrealized
// position valuation) and never blocks phases 1/3.
func RunCurrentPriceEnrichment(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	yahooClient *yahoo.Client,
	aliases map[string]price.Alias,
	concurrency int,
) Outcome {
	ids, err := st.PriceEnrichmentQueue(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("current price: list queue")
		return Outcome{}
	}

	tickers := make(map[string][]int)
	var order []string
	for _, id := range ids {
		_, ticker, _, err := st.GetTrade(ctx, id)
		if err != nil {
			continue
		}
		symbol, unenrichable := price.ResolveTicker(aliases, ticker)
		if symbol == "" || unenrichable {
			continue
		}
		if _, ok := tickers[symbol]; !ok {
			order = append(order, symbol)
		}
		tickers[symbol] = append(tickers[symbol], id)
	}

	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	var out Outcome

	for _, symbol := range order {
		tradeIDs := tickers[symbol]
		out.Attempted++

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		jitterSleep(ctx, 200*time.Millisecond)

		current, err := yahooClient.GetCurrentPrice(ctx, symbol)
		sem.Release(1)
		if err != nil || current == nil {
			continue
		}

		err = st.WithTx(ctx, func(tx *sql.Tx) error {
			for _, id := range tradeIDs {
				if err := st.UpdateTradePrices(ctx, tx, id, nil, current, nil, "", nil, nil, time.Now()); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Str("ticker", symbol).Msg("current price: write failed")
			continue
		}
		out.Succeeded++
	}

	return out
}

// RunBenchmarkPriceEnrichment implements spec §4.6.3 phase 3: for every
// trade with a known GICS sector but no benchmark price, map the sector
// to its benchmark ETF (price.BenchmarkTicker), dedup by (ETF, date), and
// fetch with the same primary-then-fallback chain as phase 1.
func RunBenchmarkPriceEnrichment(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	clients PriceClients,
	opts Options,
	batchLimit int,
) Outcome {
	breaker := NewBreaker(opts.FailureThreshold)

	ids, err := st.BenchmarkEnrichmentQueue(ctx, batchLimit)
	if err != nil {
		log.Error().Err(err).Msg("benchmark enrichment: list queue")
		return Outcome{}
	}

	targets := make(map[string]*priceTarget)
	var order []string
	for _, id := range ids {
		trade, _, sector, err := st.GetTrade(ctx, id)
		if err != nil || trade.TransactionDate.IsZero() {
			continue
		}

		etf := price.BenchmarkTicker(sector)
		key := etf + "|" + trade.TransactionDate.Format("2006-01-02")
		t, ok := targets[key]
		if !ok {
			t = &priceTarget{ticker: etf, date: trade.TransactionDate}
			targets[key] = t
			order = append(order, key)
		}
		t.tradeIDs = append(t.tradeIDs, id)
	}

	items := make([]*priceTarget, 0, len(order))
	for _, key := range order {
		items = append(items, targets[key])
	}

	fetch := func(ctx context.Context, t *priceTarget) (historicalFetchResult, error) {
		p, source, err := clients.historicalPrice(ctx, t.ticker, t.date)
		if err != nil {
			return historicalFetchResult{}, err
		}
		return historicalFetchResult{price: p, source: source}, nil
	}

	write := func(ctx context.Context, t *priceTarget, r historicalFetchResult) error {
		if r.price == nil {
			return nil
		}
		return st.WithTx(ctx, func(tx *sql.Tx) error {
			for _, id := range t.tradeIDs {
				if err := st.UpdateTradePrices(ctx, tx, id, nil, nil, r.price, "", nil, nil, time.Now()); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return Run(ctx, log, opts, items, breaker, fetch, write)
}

// markAttempted records a no-op price attempt (null price, null source)
// for trades skipped before ever reaching an adapter by setting
// price_enriched_at. Their prices stay null, so PriceEnrichmentQueue
// still returns them on the next run.
func markAttempted(ctx context.Context, log zerolog.Logger, st *store.Store, ids []int) {
	if len(ids) == 0 {
		return
	}
	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := st.UpdateTradePrices(ctx, tx, id, nil, nil, nil, "", nil, nil, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("price enrichment: mark skipped trades attempted")
	}
}
