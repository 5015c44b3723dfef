package employer

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed seed/employer_issuers.toml
var seedTOML []byte

// SeedMapping is one embedded (employer-name-variants, ticker) entry.
type SeedMapping struct {
	EmployerNames []string `toml:"employer_names"`
	IssuerTicker  string   `toml:"issuer_ticker"`
	Sector        string   `toml:"sector"`
	Confidence    float64  `toml:"confidence"`
	Notes         string   `toml:"notes"`
}

type seedFile struct {
	Mapping []SeedMapping `toml:"mapping"`
}

// SeedRow is one flattened (normalized-variant -> ticker) mapping ready
// for upsert, per spec §4.11's seed-loader contract.
type SeedRow struct {
	NormalizedEmployer string
	Ticker             string
	Confidence         float64
	Type               MatchType
}

// LoadSeedMappings parses the embedded TOML seed table.
func LoadSeedMappings() ([]SeedMapping, error) {
	var f seedFile
	if err := toml.Unmarshal(seedTOML, &f); err != nil {
		return nil, fmt.Errorf("employer: parse seed toml: %w", err)
	}
	return f.Mapping, nil
}

// KnownTickers is the set of tickers the issuer store actually knows
// about; the caller passes it so
// ExpandSeedRows can skip and warn on entries naming an unknown ticker,
// per §4.11's "unknown tickers are skipped with a warning" rule.
type KnownTickers map[string]bool

// ExpandSeedRows flattens each SeedMapping's employer-name-variant list
// into one SeedRow per variant, normalized and confidence-1.0-exact.
// Entries naming a ticker absent from known are skipped; skipped counts
// for the mapping (not per-variant) are reported via skippedWarnings.
func ExpandSeedRows(mappings []SeedMapping, known KnownTickers) (rows []SeedRow, skippedWarnings []string) {
	for _, m := range mappings {
		if !known[m.IssuerTicker] {
			skippedWarnings = append(skippedWarnings, fmt.Sprintf("employer: seed ticker %q not found in issuer store, skipping %d variant(s)", m.IssuerTicker, len(m.EmployerNames)))
			continue
		}
		for _, name := range m.EmployerNames {
			rows = append(rows, SeedRow{
				NormalizedEmployer: Normalize(name),
				Ticker:             m.IssuerTicker,
				Confidence:         1.0,
				Type:               MatchExact,
			})
		}
	}
	return rows, skippedWarnings
}
