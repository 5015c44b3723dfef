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
	"github.com/capitoltrack/pvintel/price/tiingo"
	"github.com/capitoltrack/pvintel/price/yahoo"
)

// fakeYahooNotFoundServer answers every ticker with a 404, mirroring a
// delisted or acquired symbol Yahoo has already dropped — a confirmed
// negative, not an error, so historicalPrice falls through to Tiingo.
func fakeYahooNotFoundServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeTiingoServer always answers a fixed adjusted close for the one
// Schedule A-style daily-prices endpoint the client calls.
func fakeTiingoServer(t *testing.T, close float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tiingo/daily/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"date":"2024-03-01T00:00:00.000Z","adjClose":%g}]`, close)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunHistoricalPriceEnrichment_FallsBackToTiingoOnYahooMiss(t *testing.T) {
	yahooSrv := fakeYahooNotFoundServer(t)
	tiingoSrv := fakeTiingoServer(t, 17.25)
	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Delisted Co", Ticker: "DELI:US"})
	}))

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	low, high := int64(1001), int64(15000)
	trade := &data.Trade{
		ID: 1, PoliticianID: "P000001", AssetID: 1, IssuerID: 1,
		PublishedAt: date, TransactionDate: date, Kind: data.TxBuy,
		SizeRangeLow: &low, SizeRangeHigh: &high,
	}
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error { return st.UpsertTrade(ctx, tx, trade) }))

	clients := PriceClients{
		Primary:  yahoo.NewClient(zerolog.Nop()).WithBaseURL(yahooSrv.URL),
		Fallback: tiingo.NewClient("test-key").WithBaseURL(tiingoSrv.URL),
	}

	out := RunHistoricalPriceEnrichment(ctx, testLogger(), st, clients, map[string]price.Alias{}, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)

	got, _, _, err := st.GetTrade(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got.ExecutedPrice)
	assert.Equal(t, 17.25, *got.ExecutedPrice)
	assert.Equal(t, "tiingo", got.PriceSource)
	require.NotNil(t, got.EstimatedShares)
	require.NotNil(t, got.EstimatedValue)
}

func TestRunHistoricalPriceEnrichment_NoFallbackConfiguredLeavesTradeUnenriched(t *testing.T) {
	yahooSrv := fakeYahooNotFoundServer(t)
	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Delisted Co", Ticker: "DELI:US"})
	}))

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trade := &data.Trade{
		ID: 1, PoliticianID: "P000001", AssetID: 1, IssuerID: 1,
		PublishedAt: date, TransactionDate: date, Kind: data.TxBuy,
	}
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error { return st.UpsertTrade(ctx, tx, trade) }))

	clients := PriceClients{Primary: yahoo.NewClient(zerolog.Nop()).WithBaseURL(yahooSrv.URL)}

	out := RunHistoricalPriceEnrichment(ctx, testLogger(), st, clients, map[string]price.Alias{}, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded, "a confirmed no-price negative still counts as a handled item, not a failure")

	got, _, _, err := st.GetTrade(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.ExecutedPrice)
	assert.Empty(t, got.PriceSource)
}
