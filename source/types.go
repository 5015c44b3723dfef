package source

// Page wraps one page of scraped records with the site's reported
// pagination totals, when present in the payload.
type Page[T any] struct {
	Data       []T
	TotalPages int64
	TotalCount int64
}

// ScrapedIssuerRef is the embedded issuer summary found on a trade record.
type ScrapedIssuerRef struct {
	StateID     string `json:"_stateId"`
	C2IQ        string `json:"c2iq"`
	Country     string `json:"country"`
	IssuerName  string `json:"issuerName"`
	IssuerTicker string `json:"issuerTicker"`
	Sector      string `json:"sector"`
}

// ScrapedPoliticianRef is the embedded politician summary found on a
// trade record.
type ScrapedPoliticianRef struct {
	StateID   string `json:"_stateId"`
	Chamber   string `json:"chamber"`
	DOB       string `json:"dob"`
	FirstName string `json:"firstName"`
	Gender    string `json:"gender"`
	LastName  string `json:"lastName"`
	Nickname  string `json:"nickname"`
	Party     string `json:"party"`
}

// ScrapedTrade is one trade record as embedded in the trades-list payload.
type ScrapedTrade struct {
	TxID            int64                `json:"_txId"`
	PoliticianID    string               `json:"_politicianId"`
	IssuerID        int64                `json:"_issuerId"`
	Chamber         string               `json:"chamber"`
	Comment         string               `json:"comment"`
	Issuer          ScrapedIssuerRef     `json:"issuer"`
	Owner           string               `json:"owner"`
	Politician      ScrapedPoliticianRef `json:"politician"`
	Price           *float64             `json:"price"`
	PubDate         string               `json:"pubDate"`
	ReportingGap    int64                `json:"reportingGap"`
	TxDate          string               `json:"txDate"`
	TxType          string               `json:"txType"`
	Value           int64                `json:"value"`
	FilingURL       string               `json:"filingUrl"`
	FilingID        int64                `json:"filingId"`
}

// ScrapedTradeDetail carries the filing-document identity discovered on
// a single trade's detail page.
type ScrapedTradeDetail struct {
	FilingURL string
	FilingID  int
}

// ScrapedIssuerStats is the trade/politician/volume summary embedded on
// an issuer list row or detail page.
type ScrapedIssuerStats struct {
	CountTrades     int64  `json:"countTrades"`
	CountPoliticians int64 `json:"countPoliticians"`
	Volume          int64  `json:"volume"`
	DateLastTraded  string `json:"dateLastTraded"`
}

// ScrapedIssuerList is one row of the issuers index page.
type ScrapedIssuerList struct {
	IssuerID     int64              `json:"_issuerId"`
	IssuerName   string             `json:"issuerName"`
	IssuerTicker string             `json:"issuerTicker"`
	Sector       string             `json:"sector"`
	Stats        ScrapedIssuerStats `json:"stats"`
}

// ScrapedIssuerDetail is the fuller record on an issuer's detail page.
type ScrapedIssuerDetail struct {
	IssuerID     int64              `json:"_issuerId"`
	StateID      string             `json:"_stateId"`
	C2IQ         string             `json:"c2iq"`
	Country      string             `json:"country"`
	IssuerName   string             `json:"issuerName"`
	IssuerTicker string             `json:"issuerTicker"`
	Sector       string             `json:"sector"`
	Stats        ScrapedIssuerStats `json:"stats"`
}

// ScrapedPoliticianCard is one rendered row from the politicians index
// page (not JSON — parsed out of the payload text via regex).
type ScrapedPoliticianCard struct {
	PoliticianID string
	Name         string
	Party        string
	State        string
	Trades       int64
	Issuers      int64
	Volume       int64
	LastTraded   string
}

// ScrapedPolitician is the detail-page record for one politician.
type ScrapedPolitician struct {
	StateID   string `json:"_stateId"`
	Chamber   string `json:"chamber"`
	DOB       string `json:"dob"`
	FirstName string `json:"firstName"`
	Gender    string `json:"gender"`
	LastName  string `json:"lastName"`
	Nickname  string `json:"nickname"`
	Party     string `json:"party"`
}
