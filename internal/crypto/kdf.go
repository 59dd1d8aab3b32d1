// Package crypto provides the primitives of the agile encryption engine:
// the hash wrapper with salted, iterated password hashing, the AES-CBC
// block cipher, HMAC construction and key material hygiene.
//
// This is AUDIT-CRITICAL code: a change to the byte layout of any helper here
// silently produces documents no other implementation can open.
package crypto

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"ooxcrypt/internal/errors"
)

// PadByte fills derived keys and IVs that are shorter than required.
const PadByte = 0x36

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRandFailure, err)
	}

	// Sanity check: bytes should not be all zeros
	if n >= 8 && bytes.Equal(b, make([]byte, n)) {
		return nil, fmt.Errorf("%w: produced zero bytes", errors.ErrRandFailure)
	}

	return b, nil
}

// Resize returns a copy of b truncated to n bytes, or padded with PadByte
// up to n bytes.
func Resize(b []byte, n int) []byte {
	out := make([]byte, n)
	m := copy(out, b)
	for i := m; i < n; i++ {
		out[i] = PadByte
	}
	return out
}

// DeriveBlockKey hashes base ++ blockKey and resizes the digest to keySize.
// This is how purpose-specific keys are obtained from the intermediate
// password hash.
func DeriveBlockKey(t HashType, base, blockKey []byte, keySize int) []byte {
	h := NewHash(t)
	h.Update(base)
	h.Update(blockKey)
	digest := h.Finalize()
	defer SecureZero(digest)
	return Resize(digest, keySize)
}

// CalculateIV hashes salt ++ blockKey and resizes the digest to blockSize.
// A nil blockKey yields the salt itself resized, which is the IV of the
// password key encryptor.
func CalculateIV(t HashType, salt, blockKey []byte, blockSize int) []byte {
	if blockKey == nil {
		return Resize(salt, blockSize)
	}
	h := NewHash(t)
	h.Update(salt)
	h.Update(blockKey)
	return Resize(h.Finalize(), blockSize)
}

// PadToBlock returns b zero-padded to a multiple of blockSize.
// A copy is always returned so callers can wipe it independently.
func PadToBlock(b []byte, blockSize int) []byte {
	n := len(b)
	if rem := n % blockSize; rem != 0 {
		n += blockSize - rem
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
