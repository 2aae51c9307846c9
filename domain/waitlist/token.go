package waitlist

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/carbiooai/carbioo-api/pkg/constants"
)

// TokenGenerator returns a fresh opaque verification token.
type TokenGenerator func() (string, error)

// GenerateVerificationToken returns 256 random bits, hex encoded.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, constants.VerificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
