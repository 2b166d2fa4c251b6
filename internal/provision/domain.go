package provision

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	domainPrefix = "livekit-trunk-"
	domainSuffix = ".pstn.twilio.com"

	domainEntropyBytes = 8
)

// DomainGenerator returns a fresh carrier domain name per call.
type DomainGenerator func() (string, error)

// RandomDomain returns livekit-trunk-<16 hex>.pstn.twilio.com using
// crypto/rand. Local randomness does not guarantee global uniqueness; the
// carrier's own rejection (ErrDomainConflict) is authoritative.
func RandomDomain() (string, error) {
	b := make([]byte, domainEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("provision: generate domain: %w", err)
	}
	return domainPrefix + hex.EncodeToString(b) + domainSuffix, nil
}
