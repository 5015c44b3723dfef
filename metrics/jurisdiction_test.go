package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadCommitteeJurisdictions(t *testing.T) {
	jurisdictions, err := LoadCommitteeJurisdictions()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(jurisdictions), 15)

	for _, j := range jurisdictions {
		assert.Contains(t, []string{"House", "Senate"}, j.Chamber)
		for _, sector := range j.Sectors {
			assert.True(t, gicsSectors[sector], "invalid sector %q on committee %q", sector, j.CommitteeName)
		}
	}
}

func TestCommitteeSectors_SingleCommittee(t *testing.T) {
	jurisdictions, err := LoadCommitteeJurisdictions()
	assert.NoError(t, err)

	sectors := CommitteeSectors(jurisdictions, []string{"hsba"})
	assert.Len(t, sectors, 1)
	assert.True(t, sectors["Financials"])
}

func TestCommitteeSectors_UnknownCodeSkipped(t *testing.T) {
	jurisdictions, err := LoadCommitteeJurisdictions()
	assert.NoError(t, err)

	sectors := CommitteeSectors(jurisdictions, []string{"zzzz"})
	assert.Empty(t, sectors)
}

func TestCommitteeSectors_Overlap(t *testing.T) {
	jurisdictions, err := LoadCommitteeJurisdictions()
	assert.NoError(t, err)

	sectors := CommitteeSectors(jurisdictions, []string{"hsba", "ssbk"})
	// ssbk adds Real Estate on top of hsba's Financials, overlap on Financials dedups.
	assert.True(t, sectors["Financials"])
	assert.True(t, sectors["Real Estate"])
}
