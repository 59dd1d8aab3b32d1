// Package protection computes the password hashes OOXML stores for sheet,
// workbook and document protection. These guard editing, not content:
// the hash is stored next to its salt in the clear.
//
// The hash is the iterated password hash of the agile engine with the
// round counter appended to the digest, rendered as base64.
package protection

import (
	"encoding/base64"
	"fmt"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/header"
)

// DefaultSpinCount is the iteration count Office writes for new
// protection hashes.
const DefaultSpinCount = 100000

// SaltSize is the length of salts drawn by NewSalted.
const SaltSize = 16

// DefaultAlgorithm is used when NewSalted gets an empty algorithm name.
const DefaultAlgorithm = "SHA-512"

// Algorithms lists the names accepted in algorithmName attributes.
var Algorithms = []string{"MD4", "MD5", "RIPEMD-160", "SHA-1", "SHA-256", "SHA-384", "SHA-512"}

// Info mirrors the protection attributes of an OOXML element.
type Info struct {
	AlgorithmName string
	HashValue     string // base64
	SaltValue     string // base64
	SpinCount     uint32
}

// Hash returns the base64 protection hash of password.
func Hash(password string, salt []byte, spinCount uint32, algorithmName string) (string, error) {
	t, err := crypto.ParseHashType(algorithmName)
	if err != nil {
		return "", err
	}
	if spinCount > header.MaxSpinCount {
		return "", fmt.Errorf("%w: %d", errors.ErrSpinCountTooLarge, spinCount)
	}
	digest := crypto.CalculatePasswordHash(password, salt, spinCount, crypto.IterCountAppend, t)
	defer crypto.SecureZero(digest)
	return base64.StdEncoding.EncodeToString(digest), nil
}

// NewSalted hashes password with a fresh random salt.
func NewSalted(password, algorithmName string, spinCount uint32) (*Info, error) {
	if algorithmName == "" {
		algorithmName = DefaultAlgorithm
	}
	salt, err := crypto.RandomBytes(SaltSize)
	if err != nil {
		return nil, err
	}
	value, err := Hash(password, salt, spinCount, algorithmName)
	if err != nil {
		return nil, err
	}
	return &Info{
		AlgorithmName: algorithmName,
		HashValue:     value,
		SaltValue:     base64.StdEncoding.EncodeToString(salt),
		SpinCount:     spinCount,
	}, nil
}

// Verify recomputes the hash of password for info and compares it in
// constant time. A mismatch returns errors.ErrWrongPassword.
func Verify(password string, info *Info) error {
	salt, err := base64.StdEncoding.DecodeString(info.SaltValue)
	if err != nil {
		return errors.NewDescriptorError("saltValue", err)
	}
	want, err := base64.StdEncoding.DecodeString(info.HashValue)
	if err != nil {
		return errors.NewDescriptorError("hashValue", err)
	}
	got, err := Hash(password, salt, info.SpinCount, info.AlgorithmName)
	if err != nil {
		return err
	}
	gotRaw, _ := base64.StdEncoding.DecodeString(got)
	defer crypto.SecureZero(gotRaw)
	if !crypto.EqualMAC(gotRaw, want) {
		return errors.ErrWrongPassword
	}
	return nil
}
