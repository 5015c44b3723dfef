package price

// sectorETFs maps a GICS sector to its benchmark-ETF ticker, per spec
// §4.6.3/§6's "GICS sector-to-ETF table (11 entries + default SPY)" —
// grounded on capitoltraders_cli's enrich_prices.rs get_benchmark_ticker.
var sectorETFs = map[string]string{
	"Communication Services": "XLC",
	"Consumer Discretionary":  "XLY",
	"Consumer Staples":        "XLP",
	"Energy":                  "XLE",
	"Financials":              "XLF",
	"Health Care":             "XLV",
	"Industrials":             "XLI",
	"Information Technology":  "XLK",
	"Materials":                "XLB",
	"Real Estate":              "XLRE",
	"Utilities":                "XLU",
}

// DefaultBenchmarkETF is the market-wide fallback when a trade's issuer
// has no known GICS sector.
const DefaultBenchmarkETF = "SPY"

// BenchmarkTicker maps a GICS sector name to its benchmark ETF ticker,
// falling back to DefaultBenchmarkETF for an unknown or empty sector.
func BenchmarkTicker(gicsSector string) string {
	if etf, ok := sectorETFs[gicsSector]; ok {
		return etf
	}
	return DefaultBenchmarkETF
}
