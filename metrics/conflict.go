package metrics

// ConflictResult is the committee-trading conflict-of-interest outcome
// for one politician, per spec §4.10.
type ConflictResult struct {
	PoliticianID string
	Numerator    int
	Denominator  int
	Percentage   float64
	Disclaimer   string
}

const conflictDisclaimer = "current committee assignments may not reflect assignment at trade time"

// TradeSector is the minimal shape ComputeConflict needs from a closed
// trade: its ticker's sector, possibly unknown.
type TradeSector struct {
	Sector string // "" means unknown
}

// ComputeConflict measures what fraction of a politician's sector-known
// closed trades fall within the GICS sectors under their committees'
// jurisdiction. S is the union of jurisdictions[c] over the
// politician's committee codes (built via CommitteeSectors).
func ComputeConflict(politicianID string, trades []TradeSector, jurisdictionSectors map[string]bool) ConflictResult {
	numerator := 0
	denominator := 0

	for _, t := range trades {
		if t.Sector == "" {
			continue
		}
		denominator++
		if jurisdictionSectors[t.Sector] {
			numerator++
		}
	}

	percentage := 0.0
	if denominator > 0 {
		percentage = 100 * float64(numerator) / float64(denominator)
	}

	return ConflictResult{
		PoliticianID: politicianID,
		Numerator:    numerator,
		Denominator:  denominator,
		Percentage:   percentage,
		Disclaimer:   conflictDisclaimer,
	}
}
