package agile

import (
	"fmt"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
)

// ⚠️ CRITICAL INVARIANT: data integrity
//
// The HMAC covers the whole EncryptedPackage stream: the 8-byte size
// prefix and every encrypted segment as stored. The HMAC key and value
// are wrapped under the DOCUMENT key (not a password-derived key) with
//
//	IV = Hash(keyDataSalt ++ blockKey) resized to blockSize
//
// using the HmacKey and HmacValue block keys respectively.

// documentCipher returns a cipher keyed with the document key.
func (e *Engine) documentCipher() (*crypto.Cipher, error) {
	key, err := e.documentKey()
	if err != nil {
		return nil, err
	}
	return crypto.NewCipher(e.cipherType, key)
}

func (e *Engine) hmacIV(b BlockKey) []byte {
	return crypto.CalculateIV(e.hashType, e.info.KeyDataSalt, b.Bytes(), e.info.BlockSize)
}

func (e *Engine) wrapHmacField(b BlockKey, plain []byte) ([]byte, error) {
	c, err := e.documentCipher()
	if err != nil {
		return nil, err
	}
	padded := crypto.PadToBlock(plain, e.info.BlockSize)
	defer crypto.SecureZero(padded)
	return c.Encrypt(e.hmacIV(b), padded)
}

func (e *Engine) unwrapHmacField(b BlockKey, encrypted []byte) ([]byte, error) {
	c, err := e.documentCipher()
	if err != nil {
		return nil, err
	}
	if len(encrypted) == 0 {
		return nil, errors.NewDescriptorError(b.String(), fmt.Errorf("missing"))
	}
	plain, err := c.Decrypt(e.hmacIV(b), encrypted)
	if err != nil {
		return nil, err
	}
	if len(plain) < e.info.HashSize {
		crypto.SecureZero(plain)
		return nil, errors.NewDescriptorError(b.String(), fmt.Errorf("shorter than hash size"))
	}
	out := make([]byte, e.info.HashSize)
	copy(out, plain)
	crypto.SecureZero(plain)
	return out, nil
}

// EncryptHmacKey generates a random HMAC key of hashSize bytes and stores
// its wrapped form.
func (e *Engine) EncryptHmacKey() error {
	key, err := crypto.RandomBytes(e.info.HashSize)
	if err != nil {
		return err
	}
	wrapped, err := e.wrapHmacField(BlockHmacKey, key)
	if err != nil {
		crypto.SecureZero(key)
		return err
	}
	crypto.SecureZero(e.info.HmacKey)
	e.info.HmacKey = key
	e.info.HmacEncryptedKey = wrapped
	return nil
}

// EncryptHmacValue wraps the HMAC computed by Encrypt.
func (e *Engine) EncryptHmacValue() error {
	if e.info.HmacHash == nil {
		return fmt.Errorf("encrypt hmac value: %w", errors.ErrNoKey)
	}
	wrapped, err := e.wrapHmacField(BlockHmacValue, e.info.HmacHash)
	if err != nil {
		return err
	}
	e.info.HmacEncryptedValue = wrapped
	return nil
}

// DecryptHmacKey recovers the HMAC key. The document key must be known.
func (e *Engine) DecryptHmacKey() error {
	key, err := e.unwrapHmacField(BlockHmacKey, e.info.HmacEncryptedKey)
	if err != nil {
		return err
	}
	crypto.SecureZero(e.info.HmacKey)
	e.info.HmacKey = key
	return nil
}

// DecryptHmacValue recovers the stored HMAC. The document key must be known.
func (e *Engine) DecryptHmacValue() error {
	value, err := e.unwrapHmacField(BlockHmacValue, e.info.HmacEncryptedValue)
	if err != nil {
		return err
	}
	e.info.HmacHash = value
	return nil
}

// CheckDataIntegrity compares the stored HMAC with the one computed by the
// last Decrypt. A mismatch returns errors.ErrIntegrity.
func (e *Engine) CheckDataIntegrity() error {
	if e.info.HmacHash == nil || e.info.HmacCalculatedHash == nil {
		return fmt.Errorf("%w: no HMAC to compare", errors.ErrIntegrity)
	}
	if !crypto.EqualMAC(e.info.HmacHash, e.info.HmacCalculatedHash) {
		return errors.ErrIntegrity
	}
	return nil
}
