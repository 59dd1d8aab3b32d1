package crypto

import (
	"testing"
)

// BenchmarkPasswordHash measures the default 100,000 round key derivation.
func BenchmarkPasswordHash(b *testing.B) {
	salt := make([]byte, 16)
	for _, t := range []HashType{SHA1, SHA512} {
		b.Run(t.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = CalculatePasswordHash("test-password-123", salt, 100000, IterCountAppend, t)
			}
		})
	}
}

// BenchmarkCipherCBC measures AES-CBC throughput on 4 KiB segments.
func BenchmarkCipherCBC(b *testing.B) {
	for _, t := range []CipherType{AES128CBC, AES256CBC} {
		b.Run(t.String(), func(b *testing.B) {
			c, _ := NewCipher(t, make([]byte, t.KeySize()))
			iv := make([]byte, 16)
			data := make([]byte, 4096)

			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = c.EncryptTo(data, iv, data)
			}
		})
	}
}

// BenchmarkSecureZero measures secure memory zeroing performance.
func BenchmarkSecureZero(b *testing.B) {
	data := make([]byte, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SecureZero(data)
	}
}
