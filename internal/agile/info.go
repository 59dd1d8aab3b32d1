// Package agile implements the password-based OOXML Agile Encryption
// engine: key derivation and password verification, the segmented payload
// codec and the HMAC integrity check over the encrypted package.
//
// This is AUDIT-CRITICAL code - changes here directly affect file format compatibility.
//
// ⚠️ Two different keys are in play and must never be mixed:
//
//   - the password-derived block keys wrap the key encryptor fields
//     (verifier input, verifier hash, document key)
//   - the document key encrypts the payload and wraps the HMAC key/value
package agile

import (
	"fmt"
	"strings"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/header"
)

// Format constants.
const (
	// SegmentSize is the plaintext length of one independently chained
	// payload segment.
	SegmentSize = 4096
	// SizePrefixLen is the length of the plaintext size in front of the
	// encrypted segments.
	SizePrefixLen = 8
	// DefaultSpinCount is the password hash iteration count of all presets.
	DefaultSpinCount = 100000
	// MaxSpinCount bounds the iterations a file may request.
	MaxSpinCount = header.MaxSpinCount
)

// Preset is one of the supported parameter combinations.
type Preset int

const (
	AES128SHA1 Preset = iota
	AES128SHA384
	AES192SHA384
	AES256SHA512
)

// DefaultPreset is used by NewEngine.
const DefaultPreset = AES256SHA512

// Presets lists every preset in declaration order.
var Presets = []Preset{AES128SHA1, AES128SHA384, AES192SHA384, AES256SHA512}

func (p Preset) String() string {
	switch p {
	case AES128SHA1:
		return "AES128SHA1"
	case AES128SHA384:
		return "AES128SHA384"
	case AES192SHA384:
		return "AES192SHA384"
	case AES256SHA512:
		return "AES256SHA512"
	default:
		return fmt.Sprintf("Preset(%d)", int(p))
	}
}

// ParsePreset resolves a preset name case-insensitively. Dashes and
// underscores are ignored, so "aes-256-sha512" works too.
func ParsePreset(name string) (Preset, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(name))
	for _, p := range Presets {
		if p.String() == norm {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: preset %q", errors.ErrUnsupported, name)
}

// Parameters returns the encryption parameters of p.
// It panics for a Preset outside the closed set.
func (p Preset) Parameters() Parameters {
	params := Parameters{
		SpinCount:       DefaultSpinCount,
		SaltSize:        16,
		BlockSize:       16,
		CipherAlgorithm: crypto.CipherAlgorithmAES,
		CipherChaining:  crypto.ChainingModeCBC,
	}
	switch p {
	case AES128SHA1:
		params.KeyBits, params.HashSize, params.HashAlgorithm = 128, 20, "SHA1"
	case AES128SHA384:
		params.KeyBits, params.HashSize, params.HashAlgorithm = 128, 48, "SHA384"
	case AES192SHA384:
		params.KeyBits, params.HashSize, params.HashAlgorithm = 192, 48, "SHA384"
	case AES256SHA512:
		params.KeyBits, params.HashSize, params.HashAlgorithm = 256, 64, "SHA512"
	default:
		panic("agile: unknown preset " + p.String())
	}
	return params
}

// Parameters are the cryptographic settings of one document.
type Parameters struct {
	SpinCount       uint32
	SaltSize        int
	KeyBits         int
	HashSize        int
	BlockSize       int
	CipherAlgorithm string
	CipherChaining  string
	HashAlgorithm   string
}

// Preset returns the preset whose settings p carries. The spin count is
// not part of the match.
func (p Parameters) Preset() (Preset, error) {
	for _, preset := range Presets {
		want := preset.Parameters()
		want.SpinCount = p.SpinCount
		if p == want {
			return preset, nil
		}
	}
	return 0, fmt.Errorf("%w: %s-%d/%s/%d-byte hash, %d-byte salt, %d-byte blocks",
		errors.ErrUnsupported, p.CipherAlgorithm, p.KeyBits, p.HashAlgorithm, p.HashSize, p.SaltSize, p.BlockSize)
}

// Validate checks that p matches a preset and that the spin count is within
// MaxSpinCount.
func (p Parameters) Validate() error {
	if p.SpinCount > MaxSpinCount {
		return fmt.Errorf("%w: %d > %d", errors.ErrSpinCountTooLarge, p.SpinCount, MaxSpinCount)
	}
	_, err := p.Preset()
	return err
}

// resolve maps validated parameters to the primitive types.
func (p Parameters) resolve() (crypto.HashType, crypto.CipherType, error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	h, err := crypto.ParseHashType(p.HashAlgorithm)
	if err != nil {
		return 0, 0, err
	}
	c, err := crypto.CipherTypeFor(p.CipherAlgorithm, p.CipherChaining, p.KeyBits)
	if err != nil {
		return 0, 0, err
	}
	return h, c, nil
}

// KeySize returns the document key length in bytes.
func (p Parameters) KeySize() int {
	return p.KeyBits / 8
}

// EncryptionInfo is the working state and persisted metadata of one
// protected document. It is owned by a single Engine.
type EncryptionInfo struct {
	Parameters

	KeyDataSalt []byte

	// Key encryptor group, wrapped under password-derived keys.
	SaltValue                  []byte
	EncryptedVerifierHashInput []byte
	EncryptedVerifierHashValue []byte
	EncryptedKeyValue          []byte

	// HMAC group, wrapped under the document key.
	HmacKey            []byte
	HmacHash           []byte
	HmacCalculatedHash []byte
	HmacEncryptedKey   []byte
	HmacEncryptedValue []byte
}

// descriptor converts info to its persisted form.
func (info *EncryptionInfo) descriptor() *header.Descriptor {
	params := func(salt []byte) header.CipherParams {
		return header.CipherParams{
			SaltSize:        info.SaltSize,
			BlockSize:       info.BlockSize,
			KeyBits:         info.KeyBits,
			HashSize:        info.HashSize,
			CipherAlgorithm: info.CipherAlgorithm,
			CipherChaining:  info.CipherChaining,
			HashAlgorithm:   info.HashAlgorithm,
			SaltValue:       salt,
		}
	}
	return &header.Descriptor{
		KeyData:            params(info.KeyDataSalt),
		EncryptedHmacKey:   info.HmacEncryptedKey,
		EncryptedHmacValue: info.HmacEncryptedValue,
		Password: header.PasswordKeyEncryptor{
			CipherParams:               params(info.SaltValue),
			SpinCount:                  info.SpinCount,
			EncryptedVerifierHashInput: info.EncryptedVerifierHashInput,
			EncryptedVerifierHashValue: info.EncryptedVerifierHashValue,
			EncryptedKeyValue:          info.EncryptedKeyValue,
		},
	}
}

// infoFromDescriptor validates a parsed descriptor and converts it.
// The engine works with one set of parameters, so <keyData> and the
// password key encryptor must agree.
func infoFromDescriptor(d *header.Descriptor) (*EncryptionInfo, error) {
	kd, pw := d.KeyData, d.Password
	params := Parameters{
		SpinCount:       pw.SpinCount,
		SaltSize:        pw.SaltSize,
		KeyBits:         pw.KeyBits,
		HashSize:        pw.HashSize,
		BlockSize:       pw.BlockSize,
		CipherAlgorithm: pw.CipherAlgorithm,
		CipherChaining:  pw.CipherChaining,
		HashAlgorithm:   pw.HashAlgorithm,
	}
	if err := params.Validate(); err != nil {
		if errors.Is(err, errors.ErrSpinCountTooLarge) {
			return nil, errors.NewDescriptorError("encryptedKey.spinCount", err)
		}
		return nil, err
	}
	if kd.KeyBits != pw.KeyBits || kd.HashSize != pw.HashSize || kd.BlockSize != pw.BlockSize ||
		kd.HashAlgorithm != pw.HashAlgorithm || kd.CipherAlgorithm != pw.CipherAlgorithm ||
		kd.CipherChaining != pw.CipherChaining {
		return nil, fmt.Errorf("%w: keyData and key encryptor parameters differ", errors.ErrUnsupported)
	}
	if kd.SaltSize != pw.SaltSize {
		return nil, errors.NewDescriptorError("keyData.saltSize", fmt.Errorf("%d, key encryptor uses %d", kd.SaltSize, pw.SaltSize))
	}

	info := &EncryptionInfo{
		Parameters:                 params,
		KeyDataSalt:                kd.SaltValue,
		SaltValue:                  pw.SaltValue,
		EncryptedVerifierHashInput: pw.EncryptedVerifierHashInput,
		EncryptedVerifierHashValue: pw.EncryptedVerifierHashValue,
		EncryptedKeyValue:          pw.EncryptedKeyValue,
		HmacEncryptedKey:           d.EncryptedHmacKey,
		HmacEncryptedValue:         d.EncryptedHmacValue,
	}

	bs := params.BlockSize
	lengths := []struct {
		field string
		got   []byte
		want  int
	}{
		{"encryptedKey.encryptedVerifierHashInput", info.EncryptedVerifierHashInput, roundUp(params.SaltSize, bs)},
		{"encryptedKey.encryptedVerifierHashValue", info.EncryptedVerifierHashValue, roundUp(params.HashSize, bs)},
		{"encryptedKey.encryptedKeyValue", info.EncryptedKeyValue, roundUp(params.KeySize(), bs)},
		{"dataIntegrity.encryptedHmacKey", info.HmacEncryptedKey, roundUp(params.HashSize, bs)},
		{"dataIntegrity.encryptedHmacValue", info.HmacEncryptedValue, roundUp(params.HashSize, bs)},
	}
	for _, l := range lengths {
		if len(l.got) != l.want {
			return nil, errors.NewDescriptorError(l.field, fmt.Errorf("length %d, want %d", len(l.got), l.want))
		}
	}
	return info, nil
}

// roundUp rounds n up to a multiple of block.
func roundUp(n, block int) int {
	if rem := n % block; rem != 0 {
		return n + block - rem
	}
	return n
}
