package enrich

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/source"
	"github.com/capitoltrack/pvintel/store"
)

// rscPage wraps an arbitrary JSON-ish fragment in the
// `self.__next_f.push([1,"…"])` envelope the site adapter expects,
// mirroring the real page's JS-string escaping.
func rscPage(fragment string) string {
	encoded, _ := json.Marshal(fragment)
	return `<html><script>self.__next_f.push([1,` + string(encoded) + `])</script></html>`
}

func openEnrichTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunTradeDetailEnrichment_WritesFilingAndPreservesLabels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/trades/100", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rscPage(`"tradeId":100,"filingUrl":"https://example.com/filings/555.pdf"`)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertIssuer(ctx, tx, &data.Issuer{ID: 1, Name: "Acme", Ticker: "ACME:US"})
	}))

	trade := &data.Trade{
		ID: 100, PoliticianID: "P000001", AssetID: 100, IssuerID: 1,
		PublishedAt: time.Now(), TransactionDate: time.Now(), Kind: data.TxBuy,
	}
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error { return st.UpsertTrade(ctx, tx, trade) }))

	// Seed committees/labels the way the list-scrape pipeline never does but
	// a prior detail pass would — RunTradeDetailEnrichment must preserve
	// these rather than wipe them (see the function's doc comment).
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		seeded, _, _, err := st.GetTrade(ctx, 100)
		if err != nil {
			return err
		}
		seeded.Committees = []string{"HSBA"}
		seeded.Labels = []string{"congress-trading"}
		return st.UpdateTradeDetail(ctx, tx, seeded, "", time.Now())
	}))
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE trades SET enriched_at = NULL WHERE id = 100")
		return err
	}))

	client := source.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)

	out := RunTradeDetailEnrichment(ctx, testLogger(), st, client, Options{FailureThreshold: 3}, 0)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)
	assert.False(t, out.Aborted)

	got, _, _, err := st.GetTrade(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 555, got.FilingID)
	assert.Equal(t, "https://example.com/filings/555.pdf", got.FilingURL)
	assert.Equal(t, []string{"HSBA"}, got.Committees, "existing committees must survive detail enrichment")
	assert.Equal(t, []string{"congress-trading"}, got.Labels, "existing labels must survive detail enrichment")
	require.NotNil(t, got.EnrichedAt)

	ids, err := st.UnenrichedTradeIDs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
