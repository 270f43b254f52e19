package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// PickupCodeCharset is the alphabet for pickup codes: uppercase letters and
// digits, unambiguous when read over a counter.
const PickupCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomBytes returns length cryptographically random bytes.
func GenerateRandomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// GenerateRandomStringFromCharset returns a random string of the given length
// drawn uniformly from charset.
func GenerateRandomStringFromCharset(length int, charset string) (string, error) {
	charsetLength := big.NewInt(int64(len(charset)))
	result := strings.Builder{}
	result.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		result.WriteByte(charset[n.Int64()])
	}

	return result.String(), nil
}

// GeneratePickupCode returns a random code from the pickup alphabet.
func GeneratePickupCode(length int) (string, error) {
	return GenerateRandomStringFromCharset(length, PickupCodeCharset)
}
