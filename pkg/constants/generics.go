package constants

import "time"

const (
	DefaultVerificationTokenTTL = 24 * time.Hour

	// VerificationTokenBytes is the raw token size before hex encoding (256 bits).
	VerificationTokenBytes = 32
)

// VerificationQueryParam carries the verify outcome on the frontend redirect.
const VerificationQueryParam = "verification"
