// Package tiingo is the fallback historical price adapter, used when Yahoo
// returns no data for a delisted or acquired ticker. Tiingo keeps data for
// symbols Yahoo has already dropped, at the cost of one HTTP call per
// (ticker, date) pair — callers are expected to only reach this package
// after a Yahoo miss.
package tiingo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/capitoltrack/pvintel/cache"
	"github.com/capitoltrack/pvintel/rate"
)

const defaultBaseURL = "https://api.tiingo.com"

// RateLimitedError wraps rate.ErrRateLimited with the ticker that
// triggered it, for log context.
type RateLimitedError struct {
	Ticker string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("tiingo: rate limited fetching %s", e.Ticker)
}

func (e *RateLimitedError) Unwrap() error { return rate.ErrRateLimited }

// Client fetches adjusted-close prices from Tiingo's Schedule A-style
// end-of-day endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// repo persists fetched prices so a repeated (ticker, date) lookup
	// within the TTL skips the network, and a failed fetch (anything
	// short of the one-shot rate-limit error, which is never cached)
	// can still answer from the last known value. Nil disables this
	// tier entirely.
	repo *cache.Repository
}

// NewClient builds a Tiingo client. apiKey is required; Tiingo rejects
// unauthenticated requests with HTTP 401.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the API host, for tests.
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

type dailyPrice struct {
	AdjClose float64 `json:"adjClose"`
	Date     string  `json:"date"`
}

// GetPriceOnDate fetches the adjusted close for ticker on date. Returns
// (nil, nil) if Tiingo has never heard of the ticker (404) or has no
// quote for that day (empty array) — both are confirmed negatives, not
// errors. A non-nil error is either *RateLimitedError (retryable) or a
// fatal parse/auth failure.
func (c *Client) GetPriceOnDate(ctx context.Context, ticker string, date time.Time) (*float64, error) {
	cacheKey := ticker + "|" + date.UTC().Format("2006-01-02")
	if c.repo != nil {
		if raw, err := c.repo.GetIfFresh(cache.TableTiingoPrices, cacheKey); err == nil && raw != nil {
			var cached *float64
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	price, err := c.fetchOnDate(ctx, ticker, date)
	if err != nil {
		var rl *RateLimitedError
		if errors.As(err, &rl) {
			return nil, err
		}
		if c.repo != nil {
			if raw, staleErr := c.repo.Get(cache.TableTiingoPrices, cacheKey); staleErr == nil && raw != nil {
				var stale *float64
				if json.Unmarshal(raw, &stale) == nil {
					return stale, nil
				}
			}
		}
		return nil, err
	}

	if c.repo != nil {
		_ = c.repo.Store(cache.TableTiingoPrices, cacheKey, price, cache.TTLPrice)
	}
	return price, nil
}

// fetchOnDate is the uncached network call GetPriceOnDate wraps.
func (c *Client) fetchOnDate(ctx context.Context, ticker string, date time.Time) (*float64, error) {
	dateStr := date.UTC().Format("2006-01-02")
	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s",
		c.baseURL, ticker, dateStr, dateStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("tiingo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tiingo: request %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, nil
	case http.StatusUnauthorized:
		return nil, rate.ErrInvalidAPIKey
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tiingo: read response for %s: %w", ticker, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiingo: %s: http %d: %s", ticker, resp.StatusCode, truncate(string(body), 200))
	}

	// Quirk: a rate-limited response comes back as HTTP 200 with a
	// text/plain or text/html body instead of a JSON array.
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/html") {
		lower := strings.ToLower(string(body))
		if strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "error") {
			return nil, &RateLimitedError{Ticker: ticker}
		}
	}

	var prices []dailyPrice
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("tiingo: decode %s: %w (body: %s)", ticker, err, truncate(string(body), 500))
	}

	if len(prices) == 0 {
		return nil, nil
	}
	price := prices[0].AdjClose
	return &price, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
