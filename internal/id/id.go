package id

import (
	"crypto/rand"
	"encoding/hex"
	mathrand "math/rand/v2"

	"github.com/google/uuid"
)

// UUID returns a random RFC 4122 version 4 UUID string.
func UUID() string {
	return uuid.NewString()
}

// Short returns a 16 character random hex string.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// SeededUUID returns a version 4 UUID drawn from rng, for reproducible
// generated data. A nil rng falls back to UUID.
func SeededUUID(rng *mathrand.Rand) string {
	if rng == nil {
		return UUID()
	}
	var b uuid.UUID
	for i := range b {
		b[i] = byte(rng.IntN(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return b.String()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
