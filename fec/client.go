// Package fec is a typed client over the FEC's public OpenFEC API:
// candidate search, candidate committees, and keyset-paginated Schedule A
// contributions — plus a three-tier committee resolver (§4.9) built on
// top of it.
package fec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/capitoltrack/pvintel/cache"
)

const defaultBaseURL = "https://api.open.fec.gov/v1"

// Client is the OpenFEC API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// repo persists candidate-search and candidate-committees responses,
	// letting the resolver's tier-3 API fetch skip the network both when
	// a recent answer is still fresh and (best-effort) when the upstream
	// call itself fails. Nil disables this tier entirely.
	repo *cache.Repository
}

// NewClient builds a Client. apiKey is required — donation ingestion
// cannot proceed without one (spec §6).
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
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

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &APIError{Kind: KindNetwork, Body: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Body: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &APIError{Kind: KindRateLimited, StatusCode: resp.StatusCode}
	case http.StatusForbidden:
		return &APIError{Kind: KindInvalidAPIKey, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, StatusCode: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Kind: KindInvalidRequest, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindParseFailed, StatusCode: resp.StatusCode, Body: fmt.Sprintf("%v: %s", err, truncate(string(body), 200))}
	}
	return nil
}

// SearchCandidates looks up FEC candidates by name and state.
func (c *Client) SearchCandidates(ctx context.Context, name, state string) ([]Candidate, error) {
	cacheKey := "search:" + name + "|" + state

	if c.repo != nil {
		if raw, err := c.repo.GetIfFresh(cache.TableFECCandidates, cacheKey); err == nil && raw != nil {
			var cached []Candidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	params := url.Values{"q": {name}}
	if state != "" {
		params.Set("state", state)
	}

	var resp candidateSearchResponse
	if err := c.get(ctx, "/candidates/search/", params, &resp); err != nil {
		if c.repo != nil {
			if raw, staleErr := c.repo.Get(cache.TableFECCandidates, cacheKey); staleErr == nil && raw != nil {
				var cached []Candidate
				if json.Unmarshal(raw, &cached) == nil {
					return cached, nil
				}
			}
		}
		return nil, err
	}

	if c.repo != nil {
		_ = c.repo.Store(cache.TableFECCandidates, cacheKey, resp.Results, cache.TTLFECCandidate)
	}
	return resp.Results, nil
}

// CandidateCommittees returns the committees authorized by a candidate.
func (c *Client) CandidateCommittees(ctx context.Context, candidateID string) ([]Committee, error) {
	if c.repo != nil {
		if raw, err := c.repo.GetIfFresh(cache.TableFECCommittees, candidateID); err == nil && raw != nil {
			var cached []Committee
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var resp committeeResponse
	if err := c.get(ctx, fmt.Sprintf("/candidate/%s/committees/", candidateID), url.Values{}, &resp); err != nil {
		if c.repo != nil {
			if raw, staleErr := c.repo.Get(cache.TableFECCommittees, candidateID); staleErr == nil && raw != nil {
				var cached []Committee
				if json.Unmarshal(raw, &cached) == nil {
					return cached, nil
				}
			}
		}
		return nil, err
	}

	if c.repo != nil {
		_ = c.repo.Store(cache.TableFECCommittees, candidateID, resp.Results, cache.TTLFECCommittee)
	}
	return resp.Results, nil
}

// ScheduleA fetches one page of Schedule A contributions for a committee
// and cycle, resuming from (lastIndex, lastDate) if non-empty.
func (c *Client) ScheduleA(ctx context.Context, committeeID string, cycle int, perPage int, lastIndex, lastDate string) (ScheduleAPage, error) {
	params := url.Values{
		"committee_id": {committeeID},
		"two_year_transaction_period": {strconv.Itoa(cycle)},
		"per_page": {strconv.Itoa(perPage)},
		"sort":     {"contribution_receipt_date"},
	}
	if lastIndex != "" {
		params.Set("last_index", lastIndex)
		params.Set("last_contribution_receipt_date", lastDate)
	}

	var resp scheduleAResponse
	if err := c.get(ctx, "/schedules/schedule_a/", params, &resp); err != nil {
		return ScheduleAPage{}, err
	}

	page := ScheduleAPage{Contributions: resp.Results}
	if resp.Pagination.LastIndexes != nil {
		page.NextIndex = resp.Pagination.LastIndexes.LastIndex
		page.NextDate = resp.Pagination.LastIndexes.LastContributionReceiptDate
	}
	return page, nil
}
