package source

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	politicianIDRe = regexp.MustCompile(`href":"/politicians/([A-Z]\d{6})"`)
	politicianCardRe = regexp.MustCompile(`(?s)href":"/politicians/(?P<id>[A-Z]\d{6})".*?cell--name.*?children":"(?P<name>[^"]+)".*?party--(?P<party>democrat|republican|other).*?us-state-full--(?P<state>[a-z]{2}).*?cell--count-trades.*?children":"Trades".*?children":"(?P<trades>[\d,]+)".*?cell--count-issuers.*?children":"Issuers".*?children":"(?P<issuers>[\d,]+)".*?cell--volume.*?children":"Volume".*?children":"(?P<volume>[^"]+)".*?cell--last-traded.*?children":"Last Traded".*?children":"(?P<last>\d{4}-\d{2}-\d{2})"`)
)

// PoliticiansPage fetches and parses one page of the politicians index.
// The index is a rendered-cards page rather than a JSON array, so cards
// are parsed with compiled regexes over the concatenated RSC payload. If
// regex extraction fails (including when it finds a different number of
// id-links than parsed cards), the page is re-parsed from the rendered
// HTML with parsePoliticianCardsFromDOM, and the page fails only when
// that fallback fails too. The fallback does no id-link count check.
func (c *Client) PoliticiansPage(ctx context.Context, page int) (Page[ScrapedPoliticianCard], error) {
	url := fmt.Sprintf("%s/politicians?page=%d", c.baseURL, page)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return Page[ScrapedPoliticianCard]{}, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return Page[ScrapedPoliticianCard]{}, err
	}

	cards, err := parsePoliticianCards(payload)
	if err != nil {
		// Fall back to DOM-based parsing against the raw HTML in case the
		// RSC payload shape has drifted but the rendered markup is still
		// stable — a different extraction path over the same document.
		domCards, domErr := parsePoliticianCardsFromDOM(html)
		if domErr != nil {
			return Page[ScrapedPoliticianCard]{}, fmt.Errorf("politicians page %d: %w (dom fallback: %v)", page, err, domErr)
		}
		cards = domCards
	}

	totalCount, _ := extractNumberAfter(payload, `"totalCount":`)
	var totalPages int64
	if len(cards) > 0 && totalCount > 0 {
		totalPages = (totalCount + int64(len(cards)) - 1) / int64(len(cards))
	}

	return Page[ScrapedPoliticianCard]{Data: cards, TotalPages: totalPages, TotalCount: totalCount}, nil
}

// PoliticianDetail fetches a single politician's detail page.
func (c *Client) PoliticianDetail(ctx context.Context, politicianID string) (*ScrapedPolitician, error) {
	url := fmt.Sprintf("%s/politicians/%s", c.baseURL, politicianID)
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}

	payload, err := extractPayload(html)
	if err != nil {
		return nil, err
	}

	const needle = `"politician":{`
	idx := strings.Index(payload, needle)
	if idx < 0 {
		return nil, nil
	}
	start := idx + len(needle) - 1

	raw, ok := extractBalanced(payload, start, '{', '}')
	if !ok {
		return nil, nil
	}

	var p ScrapedPolitician
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("politician %s: decode: %w", politicianID, err)
	}
	return &p, nil
}

func parsePoliticianCards(payload string) ([]ScrapedPoliticianCard, error) {
	ids := politicianIDRe.FindAllStringSubmatch(payload, -1)

	matches := politicianCardRe.FindAllStringSubmatch(payload, -1)
	names := politicianCardRe.SubexpNames()

	var cards []ScrapedPoliticianCard
	for _, m := range matches {
		fields := make(map[string]string, len(names))
		for i, n := range names {
			if n != "" {
				fields[n] = m[i]
			}
		}

		trades, err := parseCommaInt(fields["trades"])
		if err != nil {
			return nil, fmt.Errorf("invalid trade count for politician %s: %w", fields["id"], err)
		}
		issuers, err := parseCommaInt(fields["issuers"])
		if err != nil {
			return nil, fmt.Errorf("invalid issuer count for politician %s: %w", fields["id"], err)
		}
		volume, ok := parseCompactNumber(fields["volume"])
		if !ok {
			return nil, fmt.Errorf("invalid volume for politician %s", fields["id"])
		}

		cards = append(cards, ScrapedPoliticianCard{
			PoliticianID: fields["id"],
			Name:         fields["name"],
			Party:        fields["party"],
			State:        strings.ToUpper(fields["state"]),
			Trades:       trades,
			Issuers:      issuers,
			Volume:       volume,
			LastTraded:   fields["last"],
		})
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("no politician cards found in payload")
	}
	if len(ids) != len(cards) {
		return nil, fmt.Errorf("politician card count mismatch: expected %d id-links, parsed %d cards", len(ids), len(cards))
	}

	return cards, nil
}

// parsePoliticianCardsFromDOM re-derives the same card set by walking the
// rendered HTML tree instead of the RSC text payload, used only when the
// primary regex extraction above fails to find a matching card set.
func parsePoliticianCardsFromDOM(html string) ([]ScrapedPoliticianCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dom: %w", err)
	}

	var cards []ScrapedPoliticianCard
	var parseErr error

	doc.Find(`a[href^="/politicians/"]`).Each(func(_ int, sel *goquery.Selection) {
		if parseErr != nil {
			return
		}
		href, _ := sel.Attr("href")
		id := strings.TrimPrefix(href, "/politicians/")
		if id == "" || strings.Contains(id, "/") {
			return
		}

		row := sel.Closest("tr")
		if row.Length() == 0 {
			row = sel.Parent()
		}

		name := strings.TrimSpace(row.Find(".cell--name").Text())
		tradesText := strings.TrimSpace(row.Find(".cell--count-trades").Text())
		issuersText := strings.TrimSpace(row.Find(".cell--count-issuers").Text())
		volumeText := strings.TrimSpace(row.Find(".cell--volume").Text())
		lastText := strings.TrimSpace(row.Find(".cell--last-traded").Text())

		trades, _ := parseCommaInt(extractTrailingNumber(tradesText))
		issuers, _ := parseCommaInt(extractTrailingNumber(issuersText))
		volume, _ := parseCompactNumber(extractTrailingNumber(volumeText))

		cards = append(cards, ScrapedPoliticianCard{
			PoliticianID: id,
			Name:         name,
			Trades:       trades,
			Issuers:      issuers,
			Volume:       volume,
			LastTraded:   lastText,
		})
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("no politician rows found in dom")
	}
	return cards, nil
}

// extractTrailingNumber strips a leading label ("Trades", "Issuers",
// "Volume") from a cell's rendered text, returning just the numeric tail.
func extractTrailingNumber(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[len(fields)-1]
}

func parseCommaInt(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty integer field")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

func parseCompactNumber(raw string) (int64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "-" || cleaned == "—" {
		return 0, false
	}
	cleaned = strings.TrimPrefix(cleaned, "$")

	mult := 1.0
	switch {
	case strings.HasSuffix(cleaned, "K") || strings.HasSuffix(cleaned, "k"):
		mult = 1_000
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "M") || strings.HasSuffix(cleaned, "m"):
		mult = 1_000_000
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "B") || strings.HasSuffix(cleaned, "b"):
		mult = 1_000_000_000
		cleaned = cleaned[:len(cleaned)-1]
	}

	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return int64(num*mult + 0.5), true
}
