package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/source"
)

// fakeCommitteeRosterServer answers every committee's roster page with a
// fixed member list on page 1 and an empty, terminal page 2, mirroring
// source.Client.CommitteeMembership's pagination loop.
func fakeCommitteeRosterServer(t *testing.T, members string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/politicians", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "2" {
			fmt.Fprint(w, rscPage(`"totalPages":1`))
			return
		}
		fmt.Fprint(w, rscPage(members+`"totalPages":1`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCommitteeMembershipSync_ReplacesRostersAndClearsAbsentPoliticians(t *testing.T) {
	members := `href":"/politicians/P000001" href":"/politicians/P000002" `
	srv := fakeCommitteeRosterServer(t, members)
	st := openEnrichTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		if err := st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000001", FirstName: "Jane", LastName: "Doe"}); err != nil {
			return err
		}
		return st.UpsertPolitician(ctx, tx, &data.Politician{ID: "P000003", FirstName: "Stale", LastName: "Member"})
	}))
	// P000003 previously had a committee assignment that no longer shows up
	// on any roster; the sync must clear it rather than leave it stale.
	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		return st.ReplacePoliticianCommittees(ctx, tx, "P000003", []string{"hsba"})
	}))

	client := source.NewClient(zerolog.Nop()).WithBaseURL(srv.URL)

	out := RunCommitteeMembershipSync(ctx, testLogger(), st, client, Options{FailureThreshold: 3, Concurrency: 8})
	assert.False(t, out.Aborted)
	assert.Greater(t, out.Succeeded, 0)

	jane, err := st.GetPolitician(ctx, "P000001")
	require.NoError(t, err)
	assert.NotEmpty(t, jane.Committees, "P000001 appears on a roster and must pick up at least one committee")

	stale, err := st.GetPolitician(ctx, "P000003")
	require.NoError(t, err)
	assert.Empty(t, stale.Committees, "P000003 is absent from every roster and must be cleared")
}
