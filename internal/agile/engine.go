package agile

import (
	"fmt"
	"io"

	"github.com/grailbio/base/traverse"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/header"
	"ooxcrypt/internal/log"
)

// ProgressFunc receives the number of payload bytes processed so far and
// the total. It is called from the goroutine running Encrypt or Decrypt.
type ProgressFunc func(done, total int64)

// Engine holds the encryption state of one document for one open or save.
// An Engine is not safe for concurrent use.
//
// ⚠️ SECURITY: Always call Close() when done to zero key material.
type Engine struct {
	info       EncryptionInfo
	preset     Preset
	hashType   crypto.HashType
	cipherType crypto.CipherType

	// key is the document key; nil until generated or unwrapped.
	key *crypto.KeyMaterial

	traverser traverse.T
	progress  ProgressFunc
	logger    log.Logger
}

// NewEngine creates an engine configured for DefaultPreset.
func NewEngine() *Engine {
	e := &Engine{
		traverser: traverse.Parallel,
		logger:    log.GetLogger().WithFields(log.String("component", "agile")),
	}
	if err := e.SetPreset(DefaultPreset); err != nil {
		panic(err)
	}
	return e
}

// SetPreset selects the parameters used by SetupEncryption.
func (e *Engine) SetPreset(p Preset) error {
	if p < AES128SHA1 || p > AES256SHA512 {
		return fmt.Errorf("%w: preset %d", errors.ErrUnsupported, int(p))
	}
	e.preset = p
	return e.applyParameters(p.Parameters())
}

// Preset returns the preset matching the current parameters.
func (e *Engine) Preset() Preset {
	return e.preset
}

// SetSpinCount overrides the password hash iteration count used by
// SetupEncryption.
func (e *Engine) SetSpinCount(n uint32) error {
	if n > MaxSpinCount {
		return fmt.Errorf("%w: %d > %d", errors.ErrSpinCountTooLarge, n, MaxSpinCount)
	}
	e.info.SpinCount = n
	return nil
}

// SetProgress installs a progress callback for Encrypt and Decrypt.
func (e *Engine) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// SetConcurrency bounds the number of segments processed in parallel.
// n <= 0 restores the default of twice GOMAXPROCS.
func (e *Engine) SetConcurrency(n int) {
	if n <= 0 {
		e.traverser = traverse.Parallel
		return
	}
	e.traverser = traverse.Limit(n)
}

// Info returns the engine's working state. Callers may read it but must
// not retain it past Close.
func (e *Engine) Info() *EncryptionInfo {
	return &e.info
}

func (e *Engine) applyParameters(p Parameters) error {
	h, c, err := p.resolve()
	if err != nil {
		return err
	}
	preset, err := p.Preset()
	if err != nil {
		return err
	}
	e.info.Parameters = p
	e.preset = preset
	e.hashType = h
	e.cipherType = c
	return nil
}

// ReadEncryptionInfo parses an EncryptionInfo stream and replaces the
// engine state with it. The document key is discarded.
func (e *Engine) ReadEncryptionInfo(r io.Reader) error {
	d, err := header.NewReader(r).ReadDescriptor()
	if err != nil {
		return err
	}
	info, err := infoFromDescriptor(d)
	if err != nil {
		return err
	}

	e.Close()
	e.info = *info
	if err := e.applyParameters(info.Parameters); err != nil {
		return err
	}
	e.logger.Debug("read encryption info",
		log.String("preset", e.preset.String()),
		log.Uint32("spin_count", e.info.SpinCount))
	return nil
}

// WriteEncryptionInfo serializes the current state as an EncryptionInfo
// stream. SetupEncryption and Encrypt must have run first.
func (e *Engine) WriteEncryptionInfo(w io.Writer) error {
	if e.info.EncryptedKeyValue == nil || e.info.HmacEncryptedValue == nil {
		return fmt.Errorf("write encryption info: %w", errors.ErrNoKey)
	}
	_, err := header.NewWriter(w).WriteDescriptor(e.info.descriptor())
	return err
}

// documentKey returns the document key or ErrNoKey.
func (e *Engine) documentKey() ([]byte, error) {
	if e.key == nil || e.key.IsClosed() {
		return nil, errors.ErrNoKey
	}
	return e.key.Bytes(), nil
}

// setDocumentKey takes ownership of key.
func (e *Engine) setDocumentKey(key []byte) {
	if e.key != nil {
		e.key.Close()
	}
	e.key = crypto.NewKeyMaterial(key)
	crypto.SecureZero(key)
}

// Close zeroes the document key, the HMAC key and the HMAC values.
// The engine may be reused after ReadEncryptionInfo or SetupEncryption.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.key != nil {
		e.key.Close()
		e.key = nil
	}
	crypto.SecureZeroMultiple(e.info.HmacKey, e.info.HmacHash, e.info.HmacCalculatedHash)
	e.info.HmacKey = nil
	e.info.HmacHash = nil
	e.info.HmacCalculatedHash = nil
}
