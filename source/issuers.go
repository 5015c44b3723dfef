package source

import (
	"context"
	"encoding/json"
	"fmt"
)

// IssuersPage fetches and parses one page of the issuers index.
func (c *Client) IssuersPage(ctx context.Context, page int) (Page[ScrapedIssuerList], error) {
	url := fmt.Sprintf("%s/issuers?page=%d", c.baseURL, page)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return Page[ScrapedIssuerList]{}, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return Page[ScrapedIssuerList]{}, err
	}

	raw, ok := extractArrayWithKey(payload, "_issuerId")
	if !ok {
		return Page[ScrapedIssuerList]{}, fmt.Errorf("issuers page %d: missing issuers data array", page)
	}

	var issuers []ScrapedIssuerList
	if err := json.Unmarshal(raw, &issuers); err != nil {
		return Page[ScrapedIssuerList]{}, fmt.Errorf("issuers page %d: decode: %w", page, err)
	}

	totalPages, _ := extractNumberAfter(payload, `"totalPages":`)
	totalCount, _ := extractNumberAfter(payload, `"totalCount":`)

	return Page[ScrapedIssuerList]{Data: issuers, TotalPages: totalPages, TotalCount: totalCount}, nil
}

// IssuerDetail fetches and parses a single issuer's detail page.
func (c *Client) IssuerDetail(ctx context.Context, issuerID int64) (ScrapedIssuerDetail, error) {
	url := fmt.Sprintf("%s/issuers/%d", c.baseURL, issuerID)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return ScrapedIssuerDetail{}, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return ScrapedIssuerDetail{}, err
	}

	raw, ok := extractObjectAfter(payload, `"issuerData":`)
	if !ok {
		return ScrapedIssuerDetail{}, fmt.Errorf("issuer %d: missing issuerData payload", issuerID)
	}

	var detail ScrapedIssuerDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return ScrapedIssuerDetail{}, fmt.Errorf("issuer %d: decode: %w", issuerID, err)
	}
	return detail, nil
}
