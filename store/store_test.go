package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedPolitician(t *testing.T, s *Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpsertPolitician(ctx, tx, &data.Politician{ID: id, FirstName: "Jane", LastName: "Doe"})
	}))
}

func seedIssuer(t *testing.T, s *Store, id int, ticker string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpsertIssuer(ctx, tx, &data.Issuer{ID: id, Name: "Acme Corp", Ticker: ticker})
	}))
}

func TestOpen_AppliesSchemaAndMigrations(t *testing.T) {
	s := openTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestUpsertTrade_RoundTripsThroughGetTrade(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedPolitician(t, s, "P000001")
	seedIssuer(t, s, 1, "ACME:US")

	trade := &data.Trade{
		ID:              100,
		PoliticianID:    "P000001",
		AssetID:         100,
		IssuerID:        1,
		PublishedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TransactionDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Kind:            data.TxBuy,
		ValueUSD:        15000,
	}

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpsertTrade(ctx, tx, trade)
	}))

	got, ticker, _, err := s.GetTrade(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ACME:US", ticker)
	assert.Equal(t, data.TxBuy, got.Kind)
	assert.Equal(t, 15000.0, got.ValueUSD)
	assert.Nil(t, got.EnrichedAt)
}

func TestUpsertTrade_SentinelFieldsNeverClobberEnrichedValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedPolitician(t, s, "P000001")
	seedIssuer(t, s, 1, "ACME:US")

	trade := &data.Trade{
		ID: 200, PoliticianID: "P000001", AssetID: 200, IssuerID: 1,
		PublishedAt: time.Now(), TransactionDate: time.Now(), Kind: data.TxBuy,
	}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.UpsertTrade(ctx, tx, trade) }))

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		enriched, _, _, err := s.GetTrade(ctx, 200)
		if err != nil {
			return err
		}
		enriched.FilingID = 555
		enriched.FilingURL = "https://example.com/filing/555"
		return s.UpdateTradeDetail(ctx, tx, enriched, "stock", time.Now())
	}))

	reUpserted := &data.Trade{
		ID: 200, PoliticianID: "P000001", AssetID: 200, IssuerID: 1,
		PublishedAt: time.Now(), TransactionDate: time.Now(), Kind: data.TxBuy,
		FilingID: 0, FilingURL: "", // sentinels: re-ingesting a list row must not blank these
	}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.UpsertTrade(ctx, tx, reUpserted) }))

	got, _, _, err := s.GetTrade(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 555, got.FilingID)
	assert.Equal(t, "https://example.com/filing/555", got.FilingURL)
}

func TestUnenrichedTradeIDs_OnlyReturnsNullEnrichedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedPolitician(t, s, "P000001")
	seedIssuer(t, s, 1, "ACME:US")

	for _, id := range []int{1, 2, 3} {
		trade := &data.Trade{
			ID: id, PoliticianID: "P000001", AssetID: id, IssuerID: 1,
			PublishedAt: time.Now(), TransactionDate: time.Now(), Kind: data.TxBuy,
		}
		require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.UpsertTrade(ctx, tx, trade) }))
	}

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		trade, _, _, err := s.GetTrade(ctx, 2)
		if err != nil {
			return err
		}
		return s.UpdateTradeDetail(ctx, tx, trade, "stock", time.Now())
	}))

	ids, err := s.UnenrichedTradeIDs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
}

func TestUpdateTradePrices_CoalescesAndSetsPriceEnrichedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedPolitician(t, s, "P000001")
	seedIssuer(t, s, 1, "ACME:US")

	trade := &data.Trade{
		ID: 1, PoliticianID: "P000001", AssetID: 1, IssuerID: 1,
		PublishedAt: time.Now(), TransactionDate: time.Now(), Kind: data.TxBuy,
	}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.UpsertTrade(ctx, tx, trade) }))

	price := 42.5
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpdateTradePrices(ctx, tx, 1, &price, nil, nil, "yahoo", nil, nil, time.Now())
	}))

	got, _, _, err := s.GetTrade(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got.ExecutedPrice)
	assert.Equal(t, 42.5, *got.ExecutedPrice)
	assert.Equal(t, "yahoo", got.PriceSource)
	require.NotNil(t, got.PriceEnrichedAt)

	// A second pass with a different price must not clobber the first.
	other := 99.0
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpdateTradePrices(ctx, tx, 1, &other, nil, nil, "tiingo", nil, nil, time.Now())
	}))
	got, _, _, err = s.GetTrade(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 42.5, *got.ExecutedPrice)
	assert.Equal(t, "yahoo", got.PriceSource)
}

func TestGetFECCommittee_NotFound(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetFECCommittee(context.Background(), "C00000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteDonationPage_AtomicWithCursorAdvance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.UpsertFECCommittee(ctx, data.FECCommittee{ID: "C00000001", Name: "Friends of Acme"})
	}))

	idx := "abc123"
	cursor := data.SyncCursor{
		CommitteeID: "C00000001",
		LastIndex:   &idx,
		SyncedAt:    time.Now(),
	}
	contribs := []data.Contribution{
		{CommitteeID: "C00000001", DonorName: "Alice", Amount: 100, ReceiptDate: time.Now(), ReceiptIndex: "1"},
	}

	require.NoError(t, s.WriteDonationPage(ctx, contribs, cursor))

	got, err := s.GetSyncCursor(ctx, "", "C00000001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, idx, *got.LastIndex)
}
