package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingPayload is returned when a page carries no RSC payload chunks
// at all — usually a sign the site markup has changed.
var ErrMissingPayload = errors.New("missing rsc payload")

// extractPayload scans html for successive
// `self.__next_f.push([1,"…"])` calls, JSON-decodes each interior string
// (they're JS string literals, so standard JSON string escaping applies),
// and concatenates the results into one buffer containing embedded JSON
// substrings.
func extractPayload(html string) (string, error) {
	const needle = `self.__next_f.push([1,"`

	var out strings.Builder
	search := html

	for {
		idx := strings.Index(search, needle)
		if idx < 0 {
			break
		}
		after := search[idx+len(needle):]

		end, ok := findUnescapedQuote(after)
		if !ok {
			break
		}

		raw := after[:end]
		var decoded string
		if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err != nil {
			return "", fmt.Errorf("decode rsc chunk: %w", err)
		}
		out.WriteString(decoded)

		search = after[end+1:]
	}

	if out.Len() == 0 {
		return "", ErrMissingPayload
	}
	return out.String(), nil
}

// findUnescapedQuote finds the index of the first `"` in s that is not
// preceded by an odd run of backslashes (i.e. not escaped).
func findUnescapedQuote(s string) (int, bool) {
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			return i, true
		}
	}
	return 0, false
}

// extractArrayWithKey locates the first JSON array immediately following
// a `"data"` key whose first element has the given discriminator field
// (e.g. `_txId` for trades, `_issuerId` for issuers).
func extractArrayWithKey(payload, key string) (json.RawMessage, bool) {
	const needle = `"data"`
	cursor := 0

	for {
		rel := strings.Index(payload[cursor:], needle)
		if rel < 0 {
			return nil, false
		}
		start := cursor + rel

		arrStartRel := strings.IndexByte(payload[start:], '[')
		if arrStartRel < 0 {
			return nil, false
		}
		arrStart := start + arrStartRel

		arrText, ok := extractBalanced(payload, arrStart, '[', ']')
		if ok {
			var items []json.RawMessage
			if err := json.Unmarshal([]byte(arrText), &items); err == nil && len(items) > 0 {
				var probe map[string]json.RawMessage
				if err := json.Unmarshal(items[0], &probe); err == nil {
					if _, has := probe[key]; has {
						return json.RawMessage(arrText), true
					}
				}
			}
		}

		cursor = start + len(needle)
	}
}

// extractObjectAfter locates the first `{...}` object following key,
// bracket-matched honoring string escaping.
func extractObjectAfter(payload, key string) (json.RawMessage, bool) {
	idx := strings.Index(payload, key)
	if idx < 0 {
		return nil, false
	}
	after := idx + len(key)

	braceRel := strings.IndexByte(payload[after:], '{')
	if braceRel < 0 {
		return nil, false
	}
	start := after + braceRel

	text, ok := extractBalanced(payload, start, '{', '}')
	if !ok {
		return nil, false
	}
	return json.RawMessage(text), true
}

// extractBalanced returns payload[start:end] where end is the index one
// past the brace/bracket that closes the one at start, honoring string
// escaping so braces inside string literals don't affect the depth count.
func extractBalanced(payload string, start int, open, close byte) (string, bool) {
	depth := 0
	inStr := false
	escape := false

	runes := []byte(payload[start:])
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inStr {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return payload[start : start+i+1], true
			}
		}
	}
	return "", false
}

// extractJSONStringField finds `"key":"value"` inside haystack starting
// from the given key literal (which must include the opening quote,
// e.g. `"filingUrl":"`), returning the decoded string value.
func extractJSONStringField(haystack, key string) (string, bool) {
	idx := strings.Index(haystack, key)
	if idx < 0 {
		return "", false
	}
	start := idx + len(key)

	end, ok := findUnescapedQuote(haystack[start:])
	if !ok {
		return "", false
	}

	raw := haystack[start : start+end]
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err != nil {
		return "", false
	}
	return decoded, true
}

// extractNumberAfter finds the first run of digits after key and parses
// it, used for payload-level scalars like "totalPages": N.
func extractNumberAfter(payload, key string) (int64, bool) {
	idx := strings.Index(payload, key)
	if idx < 0 {
		return 0, false
	}
	i := idx + len(key)
	for i < len(payload) && (payload[i] < '0' || payload[i] > '9') {
		i++
	}
	start := i
	for i < len(payload) && payload[i] >= '0' && payload[i] <= '9' {
		i++
	}
	if start == i {
		return 0, false
	}
	n, err := strconv.ParseInt(payload[start:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// filingIDFromURL derives the trailing numeric path segment of a filing
// URL as the filing id, or 0 (sentinel) if the segment isn't purely
// numeric.
func filingIDFromURL(url string) int {
	trimmed := url
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimSuffix(trimmed, ".pdf")

	i := strings.LastIndexByte(trimmed, '/')
	last := trimmed
	if i >= 0 {
		last = trimmed[i+1:]
	}
	if last == "" {
		return 0
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0
	}
	return n
}
