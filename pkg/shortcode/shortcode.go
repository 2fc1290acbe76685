package shortcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pushp314/shortlink-backend/pkg/logger"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length of every generated short code.
const Length = 6

// maxAttempts bounds the collision retry loop. With 62^6 possible codes a
// single collision is already rare; hitting this cap means the code space is
// effectively exhausted.
const maxAttempts = 32

// ErrSpaceExhausted is returned when AllocateUnique cannot find a free code.
var ErrSpaceExhausted = fmt.Errorf("short code space exhausted after %d attempts", maxAttempts)

// ExistsFunc reports whether a short code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generate produces a random fixed-length alphanumeric code from a
// cryptographically secure source.
func Generate() (string, error) {
	b := make([]byte, Length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

// AllocateUnique generates codes until exists reports a free one.
func AllocateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		code, err := Generate()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}

		logger.Warn().
			Str("code", code).
			Int("attempt", attempt).
			Msg("Short code collision, regenerating")
	}
	return "", ErrSpaceExhausted
}
