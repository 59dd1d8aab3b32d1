package crypto

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/md4"       //nolint:staticcheck // legacy OOXML algorithm name
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // legacy OOXML algorithm name
	"golang.org/x/text/encoding/unicode"

	"ooxcrypt/internal/errors"
)

// HashType selects one of the digest algorithms known to the engine.
type HashType int

const (
	MD5 HashType = iota
	SHA1
	SHA256
	SHA384
	SHA512
	MD4
	RIPEMD160
)

// Digest lengths in bytes.
const (
	MD5HashLength       = 16
	SHA1HashLength      = 20
	SHA256HashLength    = 32
	SHA384HashLength    = 48
	SHA512HashLength    = 64
	MD4HashLength       = 16
	RIPEMD160HashLength = 20
)

func (t HashType) String() string {
	switch t {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA1"
	case SHA256:
		return "SHA256"
	case SHA384:
		return "SHA384"
	case SHA512:
		return "SHA512"
	case MD4:
		return "MD4"
	case RIPEMD160:
		return "RIPEMD-160"
	default:
		return fmt.Sprintf("HashType(%d)", int(t))
	}
}

// Size returns the digest length of t.
// It panics for an unknown HashType.
func (t HashType) Size() int {
	switch t {
	case MD5:
		return MD5HashLength
	case SHA1:
		return SHA1HashLength
	case SHA256:
		return SHA256HashLength
	case SHA384:
		return SHA384HashLength
	case SHA512:
		return SHA512HashLength
	case MD4:
		return MD4HashLength
	case RIPEMD160:
		return RIPEMD160HashLength
	}
	panic("crypto: unknown hash type " + t.String())
}

// New returns the constructor for t. An unknown HashType is a configuration
// error and panics: callers obtain HashType values from ParseHashType or from
// a validated preset, never from raw input.
func (t HashType) New() func() hash.Hash {
	switch t {
	case MD5:
		return md5.New
	case SHA1:
		return sha1.New
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	case MD4:
		return md4.New
	case RIPEMD160:
		return ripemd160.New
	}
	panic("crypto: unknown hash type " + t.String())
}

// ParseHashType maps an algorithm name as written in OOXML descriptors
// ("SHA1", "SHA512") or protection attributes ("SHA-1", "SHA-512") to a
// HashType.
func ParseHashType(name string) (HashType, error) {
	switch name {
	case "MD5":
		return MD5, nil
	case "SHA1", "SHA-1":
		return SHA1, nil
	case "SHA256", "SHA-256":
		return SHA256, nil
	case "SHA384", "SHA-384":
		return SHA384, nil
	case "SHA512", "SHA-512":
		return SHA512, nil
	case "MD4":
		return MD4, nil
	case "RIPEMD-160", "RIPEMD160":
		return RIPEMD160, nil
	}
	return 0, fmt.Errorf("%w: hash algorithm %q", errors.ErrUnsupported, name)
}

// IterCount selects where the 4-byte iteration counter goes on each spin
// round. Microsoft documents both placements for the same nominal algorithm
// (MS-OFFCRYPTO 2.3.4.11 appends it, the ECMA-376 protection hash references
// prepend it), so the choice is explicit at every call site.
type IterCount int

const (
	// IterCountNone hashes the previous digest alone.
	IterCountNone IterCount = iota
	// IterCountPrepend hashes LE32(i) ++ digest.
	IterCountPrepend
	// IterCountAppend hashes digest ++ LE32(i).
	IterCountAppend
)

func (c IterCount) String() string {
	switch c {
	case IterCountNone:
		return "none"
	case IterCountPrepend:
		return "prepend"
	case IterCountAppend:
		return "append"
	default:
		return fmt.Sprintf("IterCount(%d)", int(c))
	}
}

// Hash is a streaming digest of a fixed HashType.
type Hash struct {
	t HashType
	h hash.Hash
}

// NewHash creates a streaming hash. It panics for an unknown HashType.
func NewHash(t HashType) *Hash {
	return &Hash{t: t, h: t.New()()}
}

// Update feeds p into the digest.
func (h *Hash) Update(p []byte) {
	h.h.Write(p)
}

// Write implements io.Writer so a Hash can sit behind io.Copy.
func (h *Hash) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Finalize returns the digest and resets the state for reuse.
func (h *Hash) Finalize() []byte {
	sum := h.h.Sum(nil)
	h.h.Reset()
	return sum
}

// Reset discards any data written so far.
func (h *Hash) Reset() {
	h.h.Reset()
}

// Length returns the digest length.
func (h *Hash) Length() int {
	return h.t.Size()
}

// Type returns the algorithm of h.
func (h *Hash) Type() HashType {
	return h.t
}

// CalculateHash returns the one-shot digest of data.
func CalculateHash(data []byte, t HashType) []byte {
	h := NewHash(t)
	h.Update(data)
	return h.Finalize()
}

// CalculateIteratedHash digests salt ++ input once, then re-digests the
// result spinCount times, placing the little-endian round counter according
// to iter. With no salt and no spin count it is a plain digest of input.
func CalculateIteratedHash(input, salt []byte, spinCount uint32, iter IterCount, t HashType) []byte {
	if len(salt) == 0 && spinCount == 0 {
		return CalculateHash(input, t)
	}

	h := NewHash(t)
	if len(salt) > 0 {
		initial := make([]byte, len(salt)+len(input))
		copy(initial, salt)
		copy(initial[len(salt):], input)
		h.Update(initial)
		SecureZero(initial)
	} else {
		h.Update(input)
	}
	digest := h.Finalize()
	if spinCount == 0 {
		return digest
	}

	addIter := 4
	if iter == IterCountNone {
		addIter = 0
	}
	iterPos, hashPos := 0, 0
	switch iter {
	case IterCountAppend:
		iterPos = len(digest)
	case IterCountPrepend:
		hashPos = addIter
	}

	data := make([]byte, len(digest)+addIter)
	defer SecureZero(data)
	for i := uint32(0); i < spinCount; i++ {
		copy(data[hashPos:], digest)
		if addIter > 0 {
			binary.LittleEndian.PutUint32(data[iterPos:], i)
		}
		h.Update(data)
		next := h.Finalize()
		SecureZero(digest)
		digest = next
	}
	return digest
}

// EncodePassword returns the UTF-16LE encoding of password without a BOM.
// The caller owns the returned buffer and should wipe it.
func EncodePassword(password string) []byte {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(password))
	if err != nil {
		// The encoder replaces invalid UTF-8 instead of failing.
		panic("crypto: utf-16 encoder: " + err.Error())
	}
	return b
}

// CalculatePasswordHash is CalculateIteratedHash over the UTF-16LE password.
func CalculatePasswordHash(password string, salt []byte, spinCount uint32, iter IterCount, t HashType) []byte {
	pass := EncodePassword(password)
	defer SecureZero(pass)
	return CalculateIteratedHash(pass, salt, spinCount, iter, t)
}

// HashToString renders a digest as lowercase hex.
func HashToString(digest []byte) string {
	return hex.EncodeToString(digest)
}
