package shortcode

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_LengthAndCharset(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := Generate()
		assert.NoError(t, err)
		assert.Len(t, code, Length)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(charset, ch), "unexpected character %q in %q", ch, code)
		}
		seen[code] = true
	}
	// 50 draws from a 62^6 space should never all collide
	assert.Greater(t, len(seen), 1)
}

func TestAllocateUnique_RetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 2, nil // first two codes are "taken"
	}

	code, err := AllocateUnique(context.Background(), exists)
	assert.NoError(t, err)
	assert.Len(t, code, Length)
	assert.Equal(t, 3, calls)
}

func TestAllocateUnique_SpaceExhausted(t *testing.T) {
	exists := func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	_, err := AllocateUnique(context.Background(), exists)
	assert.ErrorIs(t, err, ErrSpaceExhausted)
}
