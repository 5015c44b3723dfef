package metrics

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed/committee_sectors.yml
var jurisdictionYAML []byte

// gicsSectors is the fixed 11-sector GICS classification scheme, used
// to validate every sector named in the embedded jurisdiction table.
var gicsSectors = map[string]bool{
	"Communication Services": true,
	"Consumer Discretionary":  true,
	"Consumer Staples":        true,
	"Energy":                  true,
	"Financials":              true,
	"Health Care":             true,
	"Industrials":             true,
	"Information Technology":  true,
	"Materials":                true,
	"Real Estate":              true,
	"Utilities":                true,
}

// CommitteeJurisdiction is one committee's mapping to the GICS sectors
// under its legislative jurisdiction.
type CommitteeJurisdiction struct {
	CommitteeName string   `yaml:"committee_name"`
	Chamber       string   `yaml:"chamber"`
	FullName      string   `yaml:"full_name"`
	Sectors       []string `yaml:"sectors"`
	Notes         string   `yaml:"notes"`
}

type jurisdictionFile struct {
	Committees []CommitteeJurisdiction `yaml:"committees"`
}

// LoadCommitteeJurisdictions parses and validates the embedded
// committee-to-sector table: chamber must be "House" or "Senate", and
// every listed sector must be a recognized GICS sector.
func LoadCommitteeJurisdictions() ([]CommitteeJurisdiction, error) {
	var f jurisdictionFile
	if err := yaml.Unmarshal(jurisdictionYAML, &f); err != nil {
		return nil, fmt.Errorf("metrics: parse committee jurisdictions: %w", err)
	}

	for _, c := range f.Committees {
		if c.Chamber != "House" && c.Chamber != "Senate" {
			return nil, fmt.Errorf("metrics: committee %q has invalid chamber %q", c.CommitteeName, c.Chamber)
		}
		for _, sector := range c.Sectors {
			if !gicsSectors[sector] {
				return nil, fmt.Errorf("metrics: committee %q names invalid GICS sector %q", c.CommitteeName, sector)
			}
		}
	}
	return f.Committees, nil
}

// CommitteeSectors returns the deduplicated set of GICS sectors under
// the jurisdiction of the given committee short codes. Unknown codes
// are silently skipped — a politician's committee list may reference a
// code the jurisdiction table hasn't been curated for yet.
func CommitteeSectors(jurisdictions []CommitteeJurisdiction, committeeCodes []string) map[string]bool {
	byCode := make(map[string]CommitteeJurisdiction, len(jurisdictions))
	for _, j := range jurisdictions {
		byCode[j.CommitteeName] = j
	}

	sectors := make(map[string]bool)
	for _, code := range committeeCodes {
		j, ok := byCode[code]
		if !ok {
			continue
		}
		for _, sector := range j.Sectors {
			sectors[sector] = true
		}
	}
	return sectors
}
