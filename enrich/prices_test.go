package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/price"
	"github.com/capitoltrack/pvintel/price/yahoo"
)

// fakeYahooServer always answers a fixed adjusted close, regardless of
// ticker or date range, mirroring the chart endpoint's envelope shape
// closely enough to exercise fetchRange's decode path.
func fakeYahooServer(t *testing.T, close float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[1700000000],"indicators":{"adjclose":[{"adjclose":[%g]}]}}],"error":null}}`, close)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunHistoricalPriceEnrichment_FetchesAndSharesAcrossDedupedTrades(t *testing.T) {
	srv := fakeYahooServer(t, 42.5)
	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Acme", Ticker: "ACME:US"})
	}))

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	low, high := int64(1001), int64(15000)
	for _, id := range []int{1, 2} {
		trade := &data.Trade{
			ID: id, PoliticianID: "P000001", AssetID: id, IssuerID: 1,
			PublishedAt: date, TransactionDate: date, Kind: data.TxBuy,
			SizeRangeLow: &low, SizeRangeHigh: &high,
		}
		require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error { return st.UpsertTrade(ctx, tx, trade) }))
	}

	clients := PriceClients{Primary: yahoo.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)}

	out := RunHistoricalPriceEnrichment(ctx, testLogger(), st, clients, map[string]price.Alias{}, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Attempted, "both trades share one (ticker,date) target")
	assert.Equal(t, 1, out.Succeeded)

	for _, id := range []int{1, 2} {
		got, _, _, err := st.GetTrade(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.ExecutedPrice)
		assert.Equal(t, 42.5, *got.ExecutedPrice)
		assert.Equal(t, "yahoo", got.PriceSource)
		require.NotNil(t, got.EstimatedShares)
		require.NotNil(t, got.EstimatedValue)
	}
}

func TestRunBenchmarkPriceEnrichment_MapsSectorToETF(t *testing.T) {
	srv := fakeYahooServer(t, 500.0)
	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Acme", Ticker: "ACME:US"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		seeded, err := st.GetIssuer(ctx, 1)
		if err != nil {
			return err
		}
		seeded.Sector = "Information Technology"
		return st.UpdateIssuerDetail(ctx, tx, seeded, time.Now())
	}))

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trade := &data.Trade{
		ID: 1, PoliticianID: "P000001", AssetID: 1, IssuerID: 1,
		PublishedAt: date, TransactionDate: date, Kind: data.TxBuy,
	}
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error { return st.UpsertTrade(ctx, tx, trade) }))

	clients := PriceClients{Primary: yahoo.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)}

	out := RunBenchmarkPriceEnrichment(ctx, testLogger(), st, clients, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Succeeded)

	got, _, _, err := st.GetTrade(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got.BenchmarkPrice)
	assert.Equal(t, 500.0, *got.BenchmarkPrice)

	ids, err := st.BenchmarkEnrichmentQueue(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
