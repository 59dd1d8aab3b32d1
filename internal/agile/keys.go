package agile

import (
	"fmt"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/log"
)

// ⚠️ CRITICAL INVARIANT: password key derivation
//
//	H0      = Hash(saltValue ++ UTF-16LE(password))
//	Hn+1    = Hash(Hn ++ LE32(n))              for n in [0, spinCount)
//	key(b)  = Hash(H ++ blockKey(b)) resized to keyBits/8 (0x36 padding)
//	IV      = saltValue resized to blockSize
//
// The iteration counter is APPENDED. Prepending it yields a valid-looking
// key that simply never verifies.

// withHashFinal calls fn with the iterated password hash H and wipes H
// when fn returns.
func (e *Engine) withHashFinal(password string, fn func(hashFinal []byte) error) error {
	h := crypto.CalculatePasswordHash(password, e.info.SaltValue, e.info.SpinCount, crypto.IterCountAppend, e.hashType)
	return crypto.WithSecret(h, fn)
}

// passwordCipher returns the cipher and IV for a key encryptor field.
func (e *Engine) passwordCipher(hashFinal []byte, b BlockKey) (*crypto.Cipher, []byte, error) {
	key := crypto.DeriveBlockKey(e.hashType, hashFinal, b.Bytes(), e.info.KeySize())
	defer crypto.SecureZero(key)
	c, err := crypto.NewCipher(e.cipherType, key)
	if err != nil {
		return nil, nil, err
	}
	return c, crypto.CalculateIV(e.hashType, e.info.SaltValue, nil, e.info.BlockSize), nil
}

func (e *Engine) encryptBlock(hashFinal []byte, b BlockKey, plain []byte) ([]byte, error) {
	c, iv, err := e.passwordCipher(hashFinal, b)
	if err != nil {
		return nil, err
	}
	padded := crypto.PadToBlock(plain, e.info.BlockSize)
	defer crypto.SecureZero(padded)
	return c.Encrypt(iv, padded)
}

func (e *Engine) decryptBlock(hashFinal []byte, b BlockKey, encrypted []byte) ([]byte, error) {
	if len(encrypted) == 0 {
		return nil, errors.NewDescriptorError(b.String(), fmt.Errorf("missing"))
	}
	c, iv, err := e.passwordCipher(hashFinal, b)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(iv, encrypted)
}

// DecryptAndCheckVerifierHash derives the password hash and checks it
// against the stored verifier. A mismatch returns errors.ErrWrongPassword.
func (e *Engine) DecryptAndCheckVerifierHash(password string) error {
	return e.withHashFinal(password, e.checkVerifier)
}

func (e *Engine) checkVerifier(hashFinal []byte) error {
	input, err := e.decryptBlock(hashFinal, BlockVerifierHashInput, e.info.EncryptedVerifierHashInput)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(input)
	value, err := e.decryptBlock(hashFinal, BlockVerifierHashValue, e.info.EncryptedVerifierHashValue)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(value)

	if len(input) < e.info.SaltSize || len(value) < e.info.HashSize {
		return errors.NewDescriptorError("encryptedKey", fmt.Errorf("verifier shorter than salt or hash size"))
	}
	hash := crypto.CalculateHash(input[:e.info.SaltSize], e.hashType)
	defer crypto.SecureZero(hash)

	if !crypto.EqualMAC(hash, value[:e.info.HashSize]) {
		return errors.ErrWrongPassword
	}
	return nil
}

// DecryptEncryptionKey unwraps the document key with the password.
// It does not verify the password; see GenerateEncryptionKey.
func (e *Engine) DecryptEncryptionKey(password string) error {
	return e.withHashFinal(password, e.unwrapKey)
}

func (e *Engine) unwrapKey(hashFinal []byte) error {
	plain, err := e.decryptBlock(hashFinal, BlockKeyValue, e.info.EncryptedKeyValue)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(plain)
	if len(plain) < e.info.KeySize() {
		return errors.NewDescriptorError("encryptedKey.encryptedKeyValue", fmt.Errorf("shorter than key size"))
	}
	key := make([]byte, e.info.KeySize())
	copy(key, plain)
	e.setDocumentKey(key)
	return nil
}

// GenerateEncryptionKey is the read-side password entry point: it checks
// the password, unwraps the document key and recovers the stored HMAC key
// and value. The password hash is computed once.
func (e *Engine) GenerateEncryptionKey(password string) error {
	err := e.withHashFinal(password, func(hashFinal []byte) error {
		if err := e.checkVerifier(hashFinal); err != nil {
			return err
		}
		return e.unwrapKey(hashFinal)
	})
	if err != nil {
		return err
	}
	if err := e.DecryptHmacKey(); err != nil {
		return err
	}
	if err := e.DecryptHmacValue(); err != nil {
		return err
	}
	e.logger.Debug("password accepted", log.String("preset", e.preset.String()))
	return nil
}

// SetupEncryptionParameters applies p and draws a fresh key data salt.
// Any previous key material is discarded.
func (e *Engine) SetupEncryptionParameters(p Parameters) error {
	if err := e.applyParameters(p); err != nil {
		return err
	}
	salt, err := crypto.RandomBytes(p.SaltSize)
	if err != nil {
		return err
	}
	e.Close()
	e.info = EncryptionInfo{Parameters: p, KeyDataSalt: salt}
	return nil
}

// SetupEncryptionKey generates a document key, wraps it under the password
// together with a fresh verifier, and generates and wraps the HMAC key.
func (e *Engine) SetupEncryptionKey(password string) error {
	key, err := crypto.RandomBytes(e.info.KeySize())
	if err != nil {
		return err
	}
	e.setDocumentKey(key)

	if e.info.SaltValue, err = crypto.RandomBytes(e.info.SaltSize); err != nil {
		return err
	}
	err = e.withHashFinal(password, func(hashFinal []byte) error {
		if err := e.generateVerifier(hashFinal); err != nil {
			return err
		}
		return e.wrapKey(hashFinal)
	})
	if err != nil {
		return err
	}
	return e.EncryptHmacKey()
}

// GenerateAndEncryptVerifierHash draws a new password salt and verifier and
// stores both encrypted verifier fields.
func (e *Engine) GenerateAndEncryptVerifierHash(password string) error {
	salt, err := crypto.RandomBytes(e.info.SaltSize)
	if err != nil {
		return err
	}
	e.info.SaltValue = salt
	return e.withHashFinal(password, e.generateVerifier)
}

func (e *Engine) generateVerifier(hashFinal []byte) error {
	input, err := crypto.RandomBytes(e.info.SaltSize)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(input)
	hash := crypto.CalculateHash(input, e.hashType)
	defer crypto.SecureZero(hash)

	if e.info.EncryptedVerifierHashInput, err = e.encryptBlock(hashFinal, BlockVerifierHashInput, input); err != nil {
		return err
	}
	if e.info.EncryptedVerifierHashValue, err = e.encryptBlock(hashFinal, BlockVerifierHashValue, hash); err != nil {
		return err
	}
	return nil
}

// EncryptEncryptionKey wraps the document key under the password.
func (e *Engine) EncryptEncryptionKey(password string) error {
	return e.withHashFinal(password, e.wrapKey)
}

func (e *Engine) wrapKey(hashFinal []byte) error {
	key, err := e.documentKey()
	if err != nil {
		return err
	}
	e.info.EncryptedKeyValue, err = e.encryptBlock(hashFinal, BlockKeyValue, key)
	return err
}

// SetupEncryption prepares the engine to encrypt a new document with the
// current preset and spin count.
func (e *Engine) SetupEncryption(password string) error {
	if err := e.SetupEncryptionParameters(e.info.Parameters); err != nil {
		return err
	}
	if err := e.SetupEncryptionKey(password); err != nil {
		return err
	}
	e.logger.Debug("encryption set up",
		log.String("preset", e.preset.String()),
		log.Uint32("spin_count", e.info.SpinCount))
	return nil
}
