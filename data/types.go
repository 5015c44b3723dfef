// Package data defines the domain types persisted and produced by the
// ingestion and analytics core: politicians, issuers, assets, trades,
// campaign-finance records, and the derived portfolio/closed-trade objects.
package data

import "time"

// Sentinel values used by the store's upsert contracts (see store.UpsertTrade and store.UpdateTradeDetail).
// A sentinel marks "unknown" on a raw, unenriched row; re-ingestion never
// lets a sentinel clobber a previously enriched value.
const (
	SentinelInt       = 0
	SentinelURL       = ""
	SentinelAssetType = "unknown"
)

// TransactionKind is the disclosed kind of a trade.
type TransactionKind string

const (
	TxBuy      TransactionKind = "buy"
	TxSell     TransactionKind = "sell"
	TxExchange TransactionKind = "exchange"
	TxReceive  TransactionKind = "receive"
)

// Chamber identifies which chamber of Congress a politician serves in.
type Chamber string

const (
	ChamberHouse   Chamber = "house"
	ChamberSenate  Chamber = "senate"
	ChamberUnknown Chamber = ""
)

// Politician is a member of Congress tracked for trade disclosures.
type Politician struct {
	ID         string // letter + six digits, e.g. "P000197"
	FirstName  string
	LastName   string
	State      string
	Chamber    Chamber
	Party      string
	Bio        string
	Committees []string // short committee codes

	NumTrades  int
	TotalValue float64

	EnrichedAt *time.Time
}

// Issuer is the company or fund a trade's asset belongs to.
type Issuer struct {
	ID            int
	Name          string
	Ticker        string // CapitolTrades-style, e.g. "MSFT:US"
	Sector        string // GICS sector, empty if unknown
	Country       string
	State         string
	NumTrades     int
	TotalValue    float64
	MarketCap     float64
	TrailingYTD   float64
	Trailing1Y    float64
	EnrichedAt    *time.Time
}

// EndOfDayPrice is one day's close for an issuer's primary ticker.
type EndOfDayPrice struct {
	IssuerID int
	Date     time.Time
	Close    float64
}

// Asset is the instrument traded. Its ID equals the originating transaction
// ID; AssetType starts as SentinelAssetType and is upgraded (never
// downgraded) by enrichment.
type Asset struct {
	ID        int
	AssetType string
}

// Trade is one disclosed transaction. Sentinel fields (FilingID == 0,
// FilingURL == "") mean "not yet known" and must never overwrite a
// previously-enriched value on re-ingestion (see store.UpsertTrade).
type Trade struct {
	ID              int
	PoliticianID    string
	AssetID         int
	IssuerID        int
	PublishedAt     time.Time
	FiledAt         time.Time
	TransactionDate time.Time
	Kind            TransactionKind
	ExtendedType    string
	HasCapitalGains bool
	OwnerRole       string
	Chamber         Chamber
	ReportingGapDays int
	Comment         string

	SizeRangeLow  *int64
	SizeRangeHigh *int64
	ValueUSD      float64

	FilingID  int // 0 == unknown sentinel
	FilingURL string // "" == unknown sentinel

	Committees []string
	Labels     []string

	// Enriched columns
	ExecutedPrice   *float64
	CurrentPrice    *float64
	BenchmarkPrice  *float64
	PriceSource     string // "yahoo" | "tiingo"
	EstimatedShares *float64
	EstimatedValue  *float64
	EnrichedAt      *time.Time
	PriceEnrichedAt *time.Time
}

// FECMapping links a politician to their FEC candidate identities.
type FECMapping struct {
	PoliticianID string
	CandidateIDs []string
	BioguideID   string
	LastSyncedAt *time.Time
	CommitteeIDs []string
}

// CommitteeType classifies an FECCommittee by trading remit.
type CommitteeType string

const (
	CommitteeCampaign          CommitteeType = "campaign"
	CommitteeLeadershipPAC     CommitteeType = "leadership-pac"
	CommitteeJointFundraising  CommitteeType = "joint-fundraising"
	CommitteeParty             CommitteeType = "party"
	CommitteePAC               CommitteeType = "pac"
	CommitteeOther             CommitteeType = "other"
)

// FECCommittee is a campaign-finance committee as reported by the FEC.
type FECCommittee struct {
	ID             string
	Name           string
	TypeCode       string // H, S, P, X, Y, Z, N, Q, O, ...
	DesignationCode string // A, P, D, J, ...
	Party          string
	State          string
	ActiveCycles   []int
}

// Classify applies spec §4.9's classification rules in order.
func (c FECCommittee) Classify() CommitteeType {
	switch {
	case c.DesignationCode == "D":
		return CommitteeLeadershipPAC
	case c.DesignationCode == "J":
		return CommitteeJointFundraising
	case isOneOf(c.TypeCode, "H", "S", "P") && isOneOf(c.DesignationCode, "A", "P"):
		return CommitteeCampaign
	case isOneOf(c.TypeCode, "X", "Y", "Z"):
		return CommitteeParty
	case isOneOf(c.TypeCode, "N", "Q", "O"):
		return CommitteePAC
	default:
		return CommitteeOther
	}
}

func isOneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// Contribution is a single Schedule A receipt.
type Contribution struct {
	CommitteeID  string
	DonorName    string
	Employer     string
	Occupation   string
	State        string
	Zip          string
	Cycle        int
	Amount       float64
	ReceiptDate  time.Time
	ReceiptIndex string
}

// SyncCursor tracks keyset pagination progress for one (politician,
// committee) donation sync. A nil LastIndex means the sync completed.
type SyncCursor struct {
	PoliticianID string
	CommitteeID  string
	LastIndex    *string
	LastDate     *time.Time
	SyncedAt     time.Time
}

// CompletedRecently reports whether the cursor finished within the last
// 24 hours, the condition under which §4.6.4 skips the committee.
func (c SyncCursor) CompletedRecently(now time.Time) bool {
	return c.LastIndex == nil && now.Sub(c.SyncedAt) < 24*time.Hour
}

// MatchType classifies how an employer mapping was produced.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchFuzzy  MatchType = "fuzzy"
	MatchManual MatchType = "manual"
)

// EmployerMapping maps a normalized employer string to an issuer ticker.
type EmployerMapping struct {
	NormalizedEmployer string
	Ticker             string
	Confidence         float64
	MatchType          MatchType
}
