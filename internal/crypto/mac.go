package crypto

import (
	"crypto/hmac"
	"hash"
)

// NewHMAC creates an HMAC over the digest t keyed with key.
// The key is copied by crypto/hmac; callers may wipe theirs afterwards.
func NewHMAC(t HashType, key []byte) hash.Hash {
	return hmac.New(t.New(), key)
}

// EqualMAC compares two MACs or digests in constant time.
func EqualMAC(a, b []byte) bool {
	return hmac.Equal(a, b)
}
