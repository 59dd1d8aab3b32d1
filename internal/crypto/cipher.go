package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"ooxcrypt/internal/errors"
)

// Cipher algorithm and chaining names as written in the descriptor.
const (
	CipherAlgorithmAES = "AES"
	ChainingModeCBC    = "ChainingModeCBC"
)

// CipherType selects a block cipher, key size and chaining mode.
type CipherType int

const (
	AES128CBC CipherType = iota
	AES192CBC
	AES256CBC
)

func (t CipherType) String() string {
	switch t {
	case AES128CBC:
		return "AES-128-CBC"
	case AES192CBC:
		return "AES-192-CBC"
	case AES256CBC:
		return "AES-256-CBC"
	default:
		return fmt.Sprintf("CipherType(%d)", int(t))
	}
}

// KeySize returns the key length in bytes.
func (t CipherType) KeySize() int {
	switch t {
	case AES128CBC:
		return 16
	case AES192CBC:
		return 24
	case AES256CBC:
		return 32
	}
	panic("crypto: unknown cipher type " + t.String())
}

// BlockSize returns the cipher block length in bytes.
func (t CipherType) BlockSize() int {
	return aes.BlockSize
}

// CipherTypeFor resolves descriptor names and a key size to a CipherType.
func CipherTypeFor(algorithm, chaining string, keyBits int) (CipherType, error) {
	if algorithm != CipherAlgorithmAES {
		return 0, fmt.Errorf("%w: cipher algorithm %q", errors.ErrUnsupported, algorithm)
	}
	if chaining != ChainingModeCBC {
		return 0, fmt.Errorf("%w: chaining mode %q", errors.ErrUnsupported, chaining)
	}
	switch keyBits {
	case 128:
		return AES128CBC, nil
	case 192:
		return AES192CBC, nil
	case 256:
		return AES256CBC, nil
	}
	return 0, fmt.Errorf("%w: key size %d bits", errors.ErrUnsupported, keyBits)
}

// Cipher runs independent CBC chains under one key. Each call starts a fresh
// chain at the given IV and applies no padding: inputs must be a multiple of
// the block size.
type Cipher struct {
	t     CipherType
	block cipher.Block
}

// NewCipher creates a Cipher of type t. The key length must match t.
func NewCipher(t CipherType, key []byte) (*Cipher, error) {
	if len(key) != t.KeySize() {
		return nil, errors.NewCryptoError("cipher", fmt.Errorf("key length %d, want %d", len(key), t.KeySize()))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewCryptoError("cipher", err)
	}
	return &Cipher{t: t, block: block}, nil
}

// Type returns the cipher type.
func (c *Cipher) Type() CipherType {
	return c.t
}

// BlockSize returns the cipher block length in bytes.
func (c *Cipher) BlockSize() int {
	return c.block.BlockSize()
}

func (c *Cipher) check(iv, src []byte) error {
	bs := c.block.BlockSize()
	if len(iv) != bs {
		return errors.NewCryptoError("cipher", fmt.Errorf("iv length %d, want %d", len(iv), bs))
	}
	if len(src)%bs != 0 {
		return errors.NewCryptoError("cipher", fmt.Errorf("input length %d is not a multiple of %d", len(src), bs))
	}
	return nil
}

// EncryptTo encrypts src into dst, which must be at least len(src) long.
// dst and src may overlap entirely.
func (c *Cipher) EncryptTo(dst, iv, src []byte) error {
	if err := c.check(iv, src); err != nil {
		return err
	}
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(dst[:len(src)], src)
	return nil
}

// DecryptTo decrypts src into dst, which must be at least len(src) long.
// dst and src may overlap entirely.
func (c *Cipher) DecryptTo(dst, iv, src []byte) error {
	if err := c.check(iv, src); err != nil {
		return err
	}
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(dst[:len(src)], src)
	return nil
}

// Encrypt returns the CBC encryption of src.
func (c *Cipher) Encrypt(iv, src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	if err := c.EncryptTo(dst, iv, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Decrypt returns the CBC decryption of src.
func (c *Cipher) Decrypt(iv, src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	if err := c.DecryptTo(dst, iv, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// Encrypt is a one-shot NewCipher + Encrypt.
func Encrypt(t CipherType, key, iv, src []byte) ([]byte, error) {
	c, err := NewCipher(t, key)
	if err != nil {
		return nil, err
	}
	return c.Encrypt(iv, src)
}

// Decrypt is a one-shot NewCipher + Decrypt.
func Decrypt(t CipherType, key, iv, src []byte) ([]byte, error) {
	c, err := NewCipher(t, key)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(iv, src)
}
