package price

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed/ticker_aliases.yml
var tickerAliasYAML []byte

// aliasFile mirrors the ticker_aliases.yml shape: a flat list rather than
// a map, so the loader can detect and reject a duplicate "from" entry
// instead of silently letting YAML's own map-merge rules pick a winner.
type aliasFile struct {
	Aliases []struct {
		From string  `yaml:"from"`
		To   *string `yaml:"to"`
	} `yaml:"aliases"`
}

// Alias is a resolved override: To is nil when the ticker is known to be
// unenrichable (delisted with no successor, money-market fund, index
// ticker with no tradeable quote).
type Alias struct {
	To *string
}

// ParseAliases parses ticker-alias YAML content into a from->Alias map.
// Exported so callers with their own override file (tests, a future
// operator-supplied supplement) can reuse the same parsing/validation.
func ParseAliases(content []byte) (map[string]Alias, error) {
	var file aliasFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("price: parse ticker aliases: %w", err)
	}

	aliases := make(map[string]Alias, len(file.Aliases))
	for _, a := range file.Aliases {
		if _, exists := aliases[a.From]; exists {
			return nil, fmt.Errorf("price: duplicate alias 'from' ticker: %s", a.From)
		}
		aliases[a.From] = Alias{To: a.To}
	}
	return aliases, nil
}

// LoadTickerAliases parses the alias table embedded in the binary at
// build time. Panics only on a malformed seed file — a build-time
// invariant, not a runtime condition callers need to recover from.
func LoadTickerAliases() map[string]Alias {
	aliases, err := ParseAliases(tickerAliasYAML)
	if err != nil {
		panic(err)
	}
	return aliases
}

// ResolveTicker applies the alias table before falling back to
// NormalizeTicker's format-only rules. A resolved alias with To == nil
// means the ticker is known-unenrichable: callers should skip pricing
// rather than attempt a lookup that can never succeed.
func ResolveTicker(aliases map[string]Alias, ticker string) (symbol string, unenrichable bool) {
	if alias, ok := aliases[ticker]; ok {
		if alias.To == nil {
			return "", true
		}
		return *alias.To, false
	}
	return NormalizeTicker(ticker), false
}
