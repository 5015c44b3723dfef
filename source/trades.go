package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TradesPage fetches and parses one page of the trades index.
func (c *Client) TradesPage(ctx context.Context, page int) (Page[ScrapedTrade], error) {
	url := fmt.Sprintf("%s/trades?page=%d", c.baseURL, page)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return Page[ScrapedTrade]{}, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return Page[ScrapedTrade]{}, err
	}

	raw, ok := extractArrayWithKey(payload, "_txId")
	if !ok {
		return Page[ScrapedTrade]{}, fmt.Errorf("trades page %d: missing trades data array", page)
	}

	var trades []ScrapedTrade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return Page[ScrapedTrade]{}, fmt.Errorf("trades page %d: decode: %w", page, err)
	}

	totalPages, _ := extractNumberAfter(payload, `"totalPages":`)
	totalCount, _ := extractNumberAfter(payload, `"totalCount":`)

	return Page[ScrapedTrade]{Data: trades, TotalPages: totalPages, TotalCount: totalCount}, nil
}

// TradeDetail fetches a single trade's detail page and extracts its
// filing URL/id, if the site has attached one yet.
func (c *Client) TradeDetail(ctx context.Context, tradeID int64) (ScrapedTradeDetail, error) {
	url := fmt.Sprintf("%s/trades/%d", c.baseURL, tradeID)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return ScrapedTradeDetail{}, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return ScrapedTradeDetail{}, err
	}

	return extractTradeDetail(payload, tradeID), nil
}

// extractTradeDetail scans for the `"tradeId":<id>` marker and looks in a
// window around each occurrence for an embedded filingUrl field — the
// record is laid out as a flat sequence of key/value pairs rather than a
// single nested object, so a windowed search is more robust than trying
// to bracket-match the whole record.
func extractTradeDetail(payload string, tradeID int64) ScrapedTradeDetail {
	needle := fmt.Sprintf(`"tradeId":%d`, tradeID)
	cursor := 0

	for cursor < len(payload) {
		rel := strings.Index(payload[cursor:], needle)
		if rel < 0 {
			break
		}
		idx := cursor + rel

		windowStart := idx - 500
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := idx + 500
		if windowEnd > len(payload) {
			windowEnd = len(payload)
		}
		window := payload[windowStart:windowEnd]

		if url, ok := extractJSONStringField(window, `"filingUrl":"`); ok {
			return ScrapedTradeDetail{FilingURL: url, FilingID: filingIDFromURL(url)}
		}

		cursor = idx + len(needle)
	}

	return ScrapedTradeDetail{}
}
