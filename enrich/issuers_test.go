package enrich

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/source"
)

func TestRunIssuerDetailEnrichment_WritesSector(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issuers/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rscPage(`"issuerData":{"_issuerId":1,"issuerName":"Acme","issuerTicker":"ACME:US","sector":"Technology","stats":{"countTrades":12,"countPoliticians":3,"volume":500000,"dateLastTraded":"2024-03-01"}}`)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Acme", Ticker: "ACME:US"})
	}))

	client := source.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)

	out := RunIssuerDetailEnrichment(ctx, testLogger(), st, client, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)
	assert.False(t, out.Aborted)

	got, err := st.GetIssuer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Technology", got.Sector)
	require.NotNil(t, got.EnrichedAt)

	ids, err := st.UnenrichedIssuerIDs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunIssuerDetailEnrichment_ClearsPerformanceWhenStatsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issuers/2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rscPage(`"issuerData":{"_issuerId":2,"issuerName":"Delisted Co","issuerTicker":"DEAD:US","sector":"Energy","stats":{"countTrades":0,"countPoliticians":0,"volume":0,"dateLastTraded":""}}`)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 2, Name: "Delisted Co", Ticker: "DEAD:US"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		seeded, err := st.GetIssuer(ctx, 2)
		if err != nil {
			return err
		}
		seeded.MarketCap = 1e9
		seeded.Trailing1Y = 0.25
		return st.UpdateIssuerDetail(ctx, tx, seeded, time.Now())
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertEODPrice(ctx, tx, data.EndOfDayPrice{IssuerID: 2, Date: time.Now(), Close: 10})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE issuers SET enriched_at = NULL WHERE id = 2")
		return err
	}))

	client := source.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)

	out := RunIssuerDetailEnrichment(ctx, testLogger(), st, client, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Succeeded)

	got, err := st.GetIssuer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.MarketCap)
	assert.Equal(t, 0.0, got.Trailing1Y)

	prices, err := st.EODPricesSince(ctx, 2, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, prices, "stale eod closes must be cleared when stats report no trades")
}
