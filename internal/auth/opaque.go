package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// opaqueTokenBytes is the entropy of a reset token before hex encoding.
const opaqueTokenBytes = 32

// OpaqueToken is a random single-use token with an absolute expiry.
type OpaqueToken struct {
	Value     string
	ExpiresAt time.Time
}

// NewOpaqueToken returns 32 random bytes hex-encoded, expiring ttl after now.
func NewOpaqueToken(now time.Time, ttl time.Duration) (OpaqueToken, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return OpaqueToken{}, fmt.Errorf("read random bytes: %w", err)
	}
	return OpaqueToken{Value: hex.EncodeToString(b), ExpiresAt: now.Add(ttl)}, nil
}
