package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomBytes(t *testing.T) {
	b, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	other, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	assert.NotEqual(t, b, other)
}

func TestGeneratePickupCode_FormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := GeneratePickupCode(10)
		require.NoError(t, err)
		require.Len(t, code, 10)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(PickupCodeCharset, ch),
				"code %q contains %q outside the pickup alphabet", code, ch)
		}
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %q in 1000 draws over a 36^10 space", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateRandomStringFromCharset_CoversAlphabet(t *testing.T) {
	counts := make(map[rune]int)
	for i := 0; i < 200; i++ {
		s, err := GenerateRandomStringFromCharset(20, PickupCodeCharset)
		require.NoError(t, err)
		for _, ch := range s {
			counts[ch]++
		}
	}
	// 4000 draws over 36 symbols; every symbol should appear.
	assert.Len(t, counts, len(PickupCodeCharset))
}
