// Package crypto provides the primitives of the agile encryption engine.
// This file contains memory zeroing utilities for secure cleanup of sensitive data.

package crypto

import (
	"crypto/subtle"
	"hash"
	"sync"
)

// SecureZero overwrites a byte slice with zeros to prevent sensitive data
// from persisting in memory.
//
// Due to Go's garbage collector and potential compiler optimizations, this
// function cannot guarantee complete erasure. The constant-time copy keeps the
// compiler from eliding the writes.
func SecureZero(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}

// SecureZeroMultiple zeros multiple byte slices in a single call.
func SecureZeroMultiple(slices ...[]byte) {
	for _, s := range slices {
		SecureZero(s)
	}
}

// SecureZeroHash resets a hash.Hash state. Not all implementations clear
// their internal buffers on Reset.
func SecureZeroHash(h hash.Hash) {
	if h != nil {
		h.Reset()
	}
}

// WithSecret calls fn with secret and wipes secret when fn returns, whether
// or not fn fails.
//
// Example:
//
//	err := WithSecret(CalculatePasswordHash(pw, salt, n, IterCountAppend, SHA1), func(h []byte) error {
//		return useHash(h)
//	})
func WithSecret(secret []byte, fn func([]byte) error) error {
	defer SecureZero(secret)
	return fn(secret)
}

// KeyMaterial wraps sensitive key data with automatic zeroing on Close().
// Use this for key storage that outlives a single function call.
//
// Example:
//
//	km := NewKeyMaterial(documentKey)
//	defer km.Close()
//	// ... use km.Bytes() ...
type KeyMaterial struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewKeyMaterial creates a new KeyMaterial wrapper.
// The data is copied to prevent modification of the original slice.
func NewKeyMaterial(data []byte) *KeyMaterial {
	if data == nil {
		return &KeyMaterial{}
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return &KeyMaterial{data: copied}
}

// Bytes returns the underlying key data.
// Returns nil if the KeyMaterial has been closed.
func (km *KeyMaterial) Bytes() []byte {
	if km == nil {
		return nil
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.closed {
		return nil
	}
	return km.data
}

// Len returns the length of the key data.
func (km *KeyMaterial) Len() int {
	return len(km.Bytes())
}

// Close securely zeros the key data and marks it as closed.
// This method is idempotent - multiple calls are safe.
func (km *KeyMaterial) Close() {
	if km == nil {
		return
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.closed {
		return
	}
	SecureZero(km.data)
	km.data = nil
	km.closed = true
}

// IsClosed returns whether the KeyMaterial has been closed.
func (km *KeyMaterial) IsClosed() bool {
	km.mu.Lock()
	defer km.mu.Unlock()
	return km.closed
}
