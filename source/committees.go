package source

import (
	"context"
	"fmt"
)

// CommitteeMembership fetches every page of the politicians-by-committee
// listing for one committee code, accumulating politician ids across
// pages until a page reports no further pages.
func (c *Client) CommitteeMembership(ctx context.Context, committeeCode string) ([]string, error) {
	var members []string
	page := 1

	for {
		url := fmt.Sprintf("%s/politicians?committee=%s&page=%d", c.baseURL, committeeCode, page)
		html, err := c.fetchHTML(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("committee %s page %d: %w", committeeCode, page, err)
		}

		payload, err := extractPayload(html)
		if err != nil {
			return nil, fmt.Errorf("committee %s page %d: %w", committeeCode, page, err)
		}

		ids := politicianIDRe.FindAllStringSubmatch(payload, -1)
		if len(ids) == 0 {
			break
		}
		for _, m := range ids {
			members = append(members, m[1])
		}

		totalPages, ok := extractNumberAfter(payload, `"totalPages":`)
		if !ok || int64(page) >= totalPages {
			break
		}
		page++
	}

	return dedupeStrings(members), nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
