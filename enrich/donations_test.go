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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/fec"
	"github.com/capitoltrack/pvintel/store"
)

func openDonationTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeFECServer serves one committee's candidate-committees lookup and a
// two-page Schedule A response, so RunDonationIngestion exercises the
// resolver's API tier and a full keyset walk to the terminal page.
func fakeFECServer(t *testing.T) *httptest.Server {
	t.Helper()
	calls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/candidate/H12345/committees/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []fec.Committee{
				{CommitteeID: "C00000001", Name: "Friends of Acme", TypeCode: "H", DesignationCode: "P", CycleFirst: 2024},
			},
		})
	})
	mux.HandleFunc("/schedules/schedule_a/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []fec.Contribution{
					{CommitteeID: "C00000001", ContributorName: "Alice", ContributionReceiptAmount: 250,
						ContributionReceiptDate: "2024-01-15", SubID: "sub-1"},
				},
				"pagination": map[string]interface{}{
					"last_indexes": map[string]string{"last_index": "idx-1", "last_contribution_receipt_date": "2024-01-15"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []fec.Contribution{
				{CommitteeID: "C00000001", ContributorName: "Bob", ContributionReceiptAmount: 75,
					ContributionReceiptDate: "2024-01-10", SubID: "sub-2"},
			},
			"pagination": map[string]interface{}{},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunDonationIngestion_WalksKeysetToTerminalPage(t *testing.T) {
	srv := fakeFECServer(t)
	st := openDonationTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.UpsertFECMapping(ctx, data.FECMapping{
		PoliticianID: "P000001",
		CandidateIDs: []string{"H12345"},
	}, time.Now()))

	client := fec.NewClient("test-key").WithBaseURL(srv.URL)
	resolver := fec.NewCommitteeResolver(st, client)

	out := RunDonationIngestion(ctx, testLogger(), st, resolver, client, "", Options{FailureThreshold: 3})

	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)
	assert.False(t, out.Aborted)

	cursor, err := st.GetSyncCursor(ctx, "P000001", "C00000001")
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Nil(t, cursor.LastIndex, "terminal page must clear the cursor")

	byDonor, err := st.DonationsByDonor(ctx, "P000001")
	require.NoError(t, err)
	assert.InDelta(t, 250, byDonor["Alice"], 0.01)
	assert.InDelta(t, 75, byDonor["Bob"], 0.01)
}

func TestRunDonationIngestion_SkipsCommitteeSyncedWithin24Hours(t *testing.T) {
	srv := fakeFECServer(t)
	st := openDonationTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"})
	}))
	require.NoError(t, st.UpsertFECMapping(ctx, data.FECMapping{
		PoliticianID: "P000001",
		CandidateIDs: []string{"H12345"},
	}, time.Now()))
	require.NoError(t, st.WriteDonationPage(ctx, nil, data.SyncCursor{
		PoliticianID: "P000001", CommitteeID: "C00000001", SyncedAt: time.Now(),
	}))

	client := fec.NewClient("test-key").WithBaseURL(srv.URL)
	resolver := fec.NewCommitteeResolver(st, client)

	out := RunDonationIngestion(ctx, testLogger(), st, resolver, client, "", Options{FailureThreshold: 3})

	assert.Equal(t, 0, out.Attempted, "a committee synced within 24h must be skipped entirely")
}
