// Package yahoo is the primary historical/current price adapter. It wraps
// Yahoo Finance's public chart endpoint with an in-process cache keyed by
// (ticker, date), a weekend/holiday fallback chain, and rate-limit
// detection by inspecting the response body rather than trusting a single
// status code.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/cache"
	"github.com/capitoltrack/pvintel/price"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// RateLimitedError marks a response Yahoo itself throttled. The client's
// own cache and stale-fallback paths distinguish this from a genuine
// "no data" answer: the cache is never written on this path so a later
// retry can still succeed.
type RateLimitedError struct {
	Ticker string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("yahoo: rate limited fetching %s", e.Ticker)
}

type cacheKey struct {
	ticker string
	date   string // YYYY-MM-DD
}

func (k cacheKey) String() string {
	return k.ticker + "|" + k.date
}

// Client fetches adjusted-close prices from Yahoo Finance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	// cache maps "ticker|date" to a cached price, or nil for a confirmed
	// negative result (no quote exists for that day). Errors are never
	// cached — a rate limit or network blip should not poison future
	// lookups for the remainder of the process.
	cache *haxmap.Map[string, *float64]

	// repo is the persistent, TTL'd counterpart to the in-process cache
	// above: it survives process restarts and, unlike the haxmap tier,
	// is also consulted (stale) when a fetch itself fails. Nil disables
	// this tier entirely.
	repo *cache.Repository
}

// NewClient builds a Yahoo client with an empty cache.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log:   log.With().Str("component", "yahoo").Logger(),
		cache: haxmap.New[string, *float64](),
	}
}

// WithBaseURL overrides the chart endpoint, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithRepository attaches the persistent response cache. repo should
// already have EnsureSchema called on it.
func (c *Client) WithRepository(repo *cache.Repository) *Client {
	c.repo = repo
	return c
}

// CacheLen reports the number of cached (ticker, date) entries, for tests.
func (c *Client) CacheLen() int {
	return int(c.cache.Len())
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPriceOnDate returns the adjusted close for ticker on date. A nil
// *float64 with nil error means Yahoo has no quote for that exact day —
// a confirmed negative, safe for the caller to treat as "try a fallback
// day." A non-nil error (including *RateLimitedError) is never cached.
func (c *Client) GetPriceOnDate(ctx context.Context, ticker string, date time.Time) (*float64, error) {
	date = date.UTC().Truncate(24 * time.Hour)
	key := cacheKey{ticker: ticker, date: date.Format("2006-01-02")}

	if cached, ok := c.cache.Get(key.String()); ok {
		return cached, nil
	}
	if c.repo != nil {
		if raw, err := c.repo.GetIfFresh(cache.TableYahooPrices, key.String()); err == nil && raw != nil {
			var price *float64
			if json.Unmarshal(raw, &price) == nil {
				c.cache.Set(key.String(), price)
				return price, nil
			}
		}
	}

	price, err := c.fetchRange(ctx, ticker, date, date.AddDate(0, 0, 1))
	if err != nil {
		var rl *RateLimitedError
		if asRateLimited(err, &rl) {
			return nil, rl
		}
		if c.repo != nil {
			if raw, staleErr := c.repo.Get(cache.TableYahooPrices, key.String()); staleErr == nil && raw != nil {
				var stale *float64
				if json.Unmarshal(raw, &stale) == nil {
					return stale, nil
				}
			}
		}
		return nil, err
	}

	c.cache.Set(key.String(), price)
	if c.repo != nil {
		_ = c.repo.Store(cache.TableYahooPrices, key.String(), price, cache.TTLPrice)
	}
	return price, nil
}

// GetPriceOnDateWithFallback is GetPriceOnDate with the weekend/holiday
// chain from spec §4.4: try the exact date, then (if it falls on a
// weekend) the preceding Friday, then the most recent close within the
// preceding 7 days.
func (c *Client) GetPriceOnDateWithFallback(ctx context.Context, ticker string, date time.Time) (*float64, error) {
	date = date.UTC().Truncate(24 * time.Hour)

	result, err := c.GetPriceOnDate(ctx, ticker, date)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	if weekday := date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		daysBack := 1
		if weekday == time.Sunday {
			daysBack = 2
		}
		friday := date.AddDate(0, 0, -daysBack)
		fridayResult, err := c.GetPriceOnDate(ctx, ticker, friday)
		if err != nil {
			return nil, err
		}
		if fridayResult != nil {
			key := cacheKey{ticker: ticker, date: date.Format("2006-01-02")}
			c.cache.Set(key.String(), fridayResult)
			return fridayResult, nil
		}
	}

	windowStart := date.AddDate(0, 0, -7)
	key := cacheKey{ticker: ticker, date: date.Format("2006-01-02")}
	windowPrice, err := c.fetchRange(ctx, ticker, windowStart, date.AddDate(0, 0, 1))
	if err != nil {
		var rl *RateLimitedError
		if asRateLimited(err, &rl) {
			return nil, rl
		}
		if c.repo != nil {
			if raw, staleErr := c.repo.Get(cache.TableYahooPrices, key.String()); staleErr == nil && raw != nil {
				var stale *float64
				if json.Unmarshal(raw, &stale) == nil {
					return stale, nil
				}
			}
		}
		return nil, err
	}

	c.cache.Set(key.String(), windowPrice)
	if c.repo != nil {
		_ = c.repo.Store(cache.TableYahooPrices, key.String(), windowPrice, cache.TTLPrice)
	}
	return windowPrice, nil
}

// GetCurrentPrice fetches today's price using the fallback chain, so a
// request made over the weekend or right after a holiday still resolves.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (*float64, error) {
	return c.GetPriceOnDateWithFallback(ctx, ticker, time.Now())
}

// fetchRange calls the chart endpoint for [from, to) and returns the most
// recent adjusted close in range, or nil if the range contains no quotes.
func (c *Client) fetchRange(ctx context.Context, ticker string, from, to time.Time) (*float64, error) {
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, ticker, from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; pvintel/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo: request %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo: read response for %s: %w", ticker, err)
	}

	if isRateLimitBody(resp.StatusCode, body) {
		return nil, &RateLimitedError{Ticker: ticker}
	}

	if resp.StatusCode == http.StatusNotFound {
		// Unknown ticker — a confirmed negative, not an error.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: %s: status %d: %s", ticker, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("yahoo: decode %s: %w", ticker, err)
	}

	if parsed.Chart.Error != nil {
		// Yahoo's own error envelope — e.g. "Not Found" for a delisted or
		// mistyped ticker. Treated as a confirmed negative, same as the
		// Rust client's NoQuotes/NoResult/ApiError branches.
		return nil, nil
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	var series []*float64
	if len(result.Indicators.AdjClose) > 0 {
		series = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		series = result.Indicators.Quote[0].Close
	}

	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != nil {
			return series[i], nil
		}
	}
	return nil, nil
}

// isRateLimitBody inspects status and body text for Yahoo's rate-limit
// signature rather than trusting HTTP 429 alone — Yahoo has been observed
// returning 200 with an "Too Many Requests" error envelope.
func isRateLimitBody(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "too many requests") || strings.Contains(lower, "rate limit")
}

func asRateLimited(err error, target **RateLimitedError) bool {
	rl, ok := err.(*RateLimitedError)
	if ok {
		*target = rl
	}
	return ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Normalize delegates to price.NormalizeTicker — re-exported here so
// callers that only import the yahoo package don't need to also import
// price directly for the common case.
func Normalize(ticker string) string {
	return price.NormalizeTicker(ticker)
}
