package employer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaroWinkler_Identical(t *testing.T) {
	assert.InDelta(t, 1.0, jaroWinkler("apple", "apple"), 1e-9)
}

func TestJaroWinkler_Empty(t *testing.T) {
	assert.InDelta(t, 1.0, jaroWinkler("", ""), 1e-9)
	assert.InDelta(t, 0.0, jaroWinkler("apple", ""), 1e-9)
}

func TestJaroWinkler_PrefixBoost(t *testing.T) {
	// "martha"/"marhta" differ by one transposition after a shared
	// four-letter prefix; with the prefix boost they score about 0.961.
	withPrefix := jaroWinkler("martha", "marhta")
	assert.Greater(t, withPrefix, 0.9)
}

func TestJaroWinkler_Dissimilar(t *testing.T) {
	assert.Less(t, jaroWinkler("apple", "random xyz company"), 0.6)
}
