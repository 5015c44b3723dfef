package employer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "apple", Normalize("Apple Inc"))
	assert.Equal(t, "google", Normalize("Google LLC"))
	assert.Equal(t, "microsoft", Normalize("Microsoft Corporation"))
	assert.Equal(t, "goldman sachs", Normalize("Goldman Sachs Group"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "apple", Normalize("  Apple   Inc  "))
	assert.Equal(t, "siemens", Normalize("Siemens AG"))
}

func TestIsBlacklisted(t *testing.T) {
	assert.True(t, IsBlacklisted("Retired"))
	assert.True(t, IsBlacklisted("SELF-EMPLOYED"))
	assert.True(t, IsBlacklisted("N/A"))
	assert.False(t, IsBlacklisted("Apple Inc"))
}

func TestMatch_Exact(t *testing.T) {
	issuers := []Issuer{
		{ID: 1, Name: "Apple", Ticker: "AAPL"},
		{ID: 2, Name: "Microsoft", Ticker: "MSFT"},
	}
	result, ok := Match("Apple", issuers, 0.85)
	assert.True(t, ok)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, MatchExact, result.Type)
}

func TestMatch_Fuzzy(t *testing.T) {
	issuers := []Issuer{{ID: 1, Name: "Apple", Ticker: "AAPL"}}
	result, ok := Match("Apple Computer", issuers, 0.85)
	assert.True(t, ok)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.Less(t, result.Confidence, 1.0)
	assert.Equal(t, MatchFuzzy, result.Type)
}

func TestMatch_BlacklistedReturnsNone(t *testing.T) {
	issuers := []Issuer{{ID: 1, Name: "Apple", Ticker: "AAPL"}}
	_, ok := Match("Retired", issuers, 0.85)
	assert.False(t, ok)
}

func TestMatch_ShortNameNoFuzzy(t *testing.T) {
	issuers := []Issuer{{ID: 1, Name: "IBMC Corp", Ticker: "IBMC"}}
	_, ok := Match("IBM", issuers, 0.85)
	assert.False(t, ok)
}

func TestMatch_NoMatch(t *testing.T) {
	issuers := []Issuer{
		{ID: 1, Name: "Apple", Ticker: "AAPL"},
		{ID: 2, Name: "Microsoft", Ticker: "MSFT"},
	}
	_, ok := Match("Random Xyz Company", issuers, 0.85)
	assert.False(t, ok)
}

func TestLoadSeedMappings(t *testing.T) {
	mappings, err := LoadSeedMappings()
	assert.NoError(t, err)
	assert.NotEmpty(t, mappings)

	first := mappings[0]
	assert.NotEmpty(t, first.EmployerNames)
	assert.NotEmpty(t, first.IssuerTicker)
	assert.NotEmpty(t, first.Sector)
	assert.Equal(t, 1.0, first.Confidence)
}

func TestExpandSeedRows_SkipsUnknownTicker(t *testing.T) {
	mappings := []SeedMapping{
		{EmployerNames: []string{"Acme Inc"}, IssuerTicker: "ACME:US", Confidence: 1.0},
	}
	rows, warnings := ExpandSeedRows(mappings, KnownTickers{})
	assert.Empty(t, rows)
	assert.Len(t, warnings, 1)
}

func TestExpandSeedRows_KnownTicker(t *testing.T) {
	mappings := []SeedMapping{
		{EmployerNames: []string{"Acme Inc", "Acme Corp"}, IssuerTicker: "ACME:US", Confidence: 1.0},
	}
	rows, warnings := ExpandSeedRows(mappings, KnownTickers{"ACME:US": true})
	assert.Empty(t, warnings)
	assert.Len(t, rows, 2)
	assert.Equal(t, "acme", rows[0].NormalizedEmployer)
}
