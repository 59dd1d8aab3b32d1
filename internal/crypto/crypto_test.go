package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	ooxerrors "ooxcrypt/internal/errors"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestHashLengths(t *testing.T) {
	tests := []struct {
		t    HashType
		want int
	}{
		{MD5, 16},
		{SHA1, 20},
		{SHA256, 32},
		{SHA384, 48},
		{SHA512, 64},
		{MD4, 16},
		{RIPEMD160, 20},
	}
	for _, tt := range tests {
		t.Run(tt.t.String(), func(t *testing.T) {
			if got := tt.t.Size(); got != tt.want {
				t.Errorf("Size() = %d; want %d", got, tt.want)
			}
			if got := len(CalculateHash([]byte("abc"), tt.t)); got != tt.want {
				t.Errorf("len(CalculateHash) = %d; want %d", got, tt.want)
			}
			if got := NewHash(tt.t).Length(); got != tt.want {
				t.Errorf("Length() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateHashVectors(t *testing.T) {
	tests := []struct {
		t    HashType
		want string
	}{
		{MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{MD4, "a448017aaf21d8525fc10ae87aa6729d"},
		{RIPEMD160, "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
	}
	for _, tt := range tests {
		got := HashToString(CalculateHash([]byte("abc"), tt.t))
		if got != tt.want {
			t.Errorf("%s(abc) = %s; want %s", tt.t, got, tt.want)
		}
	}
}

func TestHashStreaming(t *testing.T) {
	h := NewHash(SHA512)
	h.Update([]byte("a"))
	h.Update([]byte("b"))
	if _, err := h.Write([]byte("c")); err != nil {
		t.Fatal(err)
	}
	streamed := h.Finalize()

	if !bytes.Equal(streamed, CalculateHash([]byte("abc"), SHA512)) {
		t.Error("streamed digest differs from one-shot digest")
	}

	// Finalize resets the state
	h.Update([]byte("abc"))
	if !bytes.Equal(h.Finalize(), streamed) {
		t.Error("hash was not reset by Finalize")
	}

	h.Update([]byte("garbage"))
	h.Reset()
	h.Update([]byte("abc"))
	if !bytes.Equal(h.Finalize(), streamed) {
		t.Error("Reset did not discard data")
	}
}

func TestParseHashType(t *testing.T) {
	tests := []struct {
		name string
		want HashType
	}{
		{"MD5", MD5},
		{"SHA1", SHA1},
		{"SHA-1", SHA1},
		{"SHA256", SHA256},
		{"SHA-256", SHA256},
		{"SHA384", SHA384},
		{"SHA512", SHA512},
		{"SHA-512", SHA512},
		{"MD4", MD4},
		{"RIPEMD-160", RIPEMD160},
	}
	for _, tt := range tests {
		got, err := ParseHashType(tt.name)
		if err != nil {
			t.Errorf("ParseHashType(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHashType(%q) = %v; want %v", tt.name, got, tt.want)
		}
	}

	for _, bad := range []string{"", "sha1", "WHIRLPOOL", "MD2"} {
		if _, err := ParseHashType(bad); !errors.Is(err, ooxerrors.ErrUnsupported) {
			t.Errorf("ParseHashType(%q) = %v; want ErrUnsupported", bad, err)
		}
	}
}

func TestUnknownHashTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewHash with unknown type should panic")
		}
	}()
	NewHash(HashType(42))
}

func TestCalculateIteratedHashPlacement(t *testing.T) {
	password := EncodePassword("Test1234")
	salt := make([]byte, 16)
	for i := range salt {
		salt[i] = byte(i)
	}

	tests := []struct {
		t    HashType
		iter IterCount
		want string
	}{
		{SHA1, IterCountNone, "da71cf1f699584c90d5fd7f3b83154caddc596ae"},
		{SHA1, IterCountPrepend, "18aa0b0fce78003996aa9588fa65ba222e4053d0"},
		{SHA1, IterCountAppend, "174ff3dcdb49cd54a14567976d08dd659c99193d"},
		{SHA512, IterCountNone, "a3b98836deea05c8e0eb16bc3d7152708304bd42aa134eb45db96308d03305470598f9aa402d1eae10e585488f2be7e6c6d0df96af863a798c924aea67cae3af"},
		{SHA512, IterCountPrepend, "529194448598fa71af4aab9fdaf8973c10dc3eff74164ee582e81e1f8b8820f5e8b6313495b7c3616776bc6f1eb0d3a79e1c9a78d6e640dc9a21a9fbe15ec6d8"},
		{SHA512, IterCountAppend, "65f8a7675092f4cb8856a9853e59466fd6109ccab2f176762014a0a5ba15683f0d1855a8f442c5a821b624f3d285cd083f273b4509d679885802025460666a13"},
	}
	for _, tt := range tests {
		t.Run(tt.t.String()+"/"+tt.iter.String(), func(t *testing.T) {
			got := CalculateIteratedHash(password, salt, 1000, tt.iter, tt.t)
			if !bytes.Equal(got, mustHex(t, tt.want)) {
				t.Errorf("got %x; want %s", got, tt.want)
			}
			viaPassword := CalculatePasswordHash("Test1234", salt, 1000, tt.iter, tt.t)
			if !bytes.Equal(viaPassword, got) {
				t.Error("CalculatePasswordHash differs from CalculateIteratedHash over UTF-16LE")
			}
		})
	}
}

func TestCalculateIteratedHashEdgeCases(t *testing.T) {
	// No salt and no spin count is a plain digest
	got := CalculateIteratedHash([]byte("abc"), nil, 0, IterCountAppend, SHA256)
	if !bytes.Equal(got, CalculateHash([]byte("abc"), SHA256)) {
		t.Error("unsalted, unspun hash should equal the plain digest")
	}

	// No salt, one round
	got = CalculateIteratedHash([]byte("abc"), nil, 1, IterCountAppend, SHA256)
	want := mustHex(t, "7c9bbb36dd3046a17eaaf5cf578b09b2da8b77af4e6087533990f8266c4434d4")
	if !bytes.Equal(got, want) {
		t.Errorf("unsalted single round = %x; want %x", got, want)
	}

	// Empty password is valid input
	salt := make([]byte, 16)
	for i := range salt {
		salt[i] = byte(i)
	}
	got = CalculatePasswordHash("", salt, 10, IterCountAppend, SHA1)
	want = mustHex(t, "263e7350208047e5b68d49c5d8ece1e4768fd34e")
	if !bytes.Equal(got, want) {
		t.Errorf("empty password hash = %x; want %x", got, want)
	}
}

func TestCalculateIteratedHashDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := CalculatePasswordHash("secret", salt, 500, IterCountAppend, SHA384)
	b := CalculatePasswordHash("secret", salt, 500, IterCountAppend, SHA384)
	if !bytes.Equal(a, b) {
		t.Error("same inputs should produce same hash")
	}
	c := CalculatePasswordHash("secret", salt, 501, IterCountAppend, SHA384)
	if bytes.Equal(a, c) {
		t.Error("different spin counts should produce different hashes")
	}
}

func TestEncodePassword(t *testing.T) {
	got := EncodePassword("pässwörd€")
	want := mustHex(t, "7000e400730073007700f60072006400ac20")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodePassword = %x; want %x", got, want)
	}
	if len(EncodePassword("")) != 0 {
		t.Error("empty password should encode to zero bytes")
	}
}

func TestCipherTypeFor(t *testing.T) {
	tests := []struct {
		keyBits int
		want    CipherType
	}{
		{128, AES128CBC},
		{192, AES192CBC},
		{256, AES256CBC},
	}
	for _, tt := range tests {
		got, err := CipherTypeFor(CipherAlgorithmAES, ChainingModeCBC, tt.keyBits)
		if err != nil || got != tt.want {
			t.Errorf("CipherTypeFor(%d) = %v, %v; want %v", tt.keyBits, got, err, tt.want)
		}
		if got.KeySize()*8 != tt.keyBits {
			t.Errorf("%v.KeySize() = %d", got, got.KeySize())
		}
	}

	bad := []struct {
		alg, chain string
		bits       int
	}{
		{"RC4", ChainingModeCBC, 128},
		{CipherAlgorithmAES, "ChainingModeCFB", 128},
		{CipherAlgorithmAES, ChainingModeCBC, 64},
	}
	for _, b := range bad {
		if _, err := CipherTypeFor(b.alg, b.chain, b.bits); !errors.Is(err, ooxerrors.ErrUnsupported) {
			t.Errorf("CipherTypeFor(%s, %s, %d) = %v; want ErrUnsupported", b.alg, b.chain, b.bits, err)
		}
	}
}

func TestCipherKnownVector(t *testing.T) {
	// NIST SP 800-38A F.2.1 CBC-AES128.Encrypt, first block
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	iv := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plain := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")
	want := mustHex(t, "7649abac8119b246cee98e9b12e9197d")

	got, err := Encrypt(AES128CBC, key, iv, plain)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Encrypt() = %x; want %x", got, want)
	}

	back, err := Decrypt(AES128CBC, key, iv, got)
	if err != nil {
		t.Fatalf("Decrypt() failed: %v", err)
	}
	if !bytes.Equal(back, plain) {
		t.Errorf("Decrypt() = %x; want %x", back, plain)
	}
}

func TestCipherRejectsBadInput(t *testing.T) {
	key := make([]byte, 16)
	if _, err := NewCipher(AES256CBC, key); err == nil {
		t.Error("NewCipher should reject a key of the wrong length")
	}

	c, err := NewCipher(AES128CBC, key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Encrypt(make([]byte, 16), make([]byte, 17)); err == nil {
		t.Error("Encrypt should reject input that is not block aligned")
	}
	if _, err := c.Decrypt(make([]byte, 8), make([]byte, 16)); err == nil {
		t.Error("Decrypt should reject a short IV")
	}
	var ce *ooxerrors.CryptoError
	_, err = c.Encrypt(make([]byte, 16), make([]byte, 3))
	if !errors.As(err, &ce) || ce.Op != "cipher" {
		t.Errorf("expected CryptoError{Op: cipher}, got %v", err)
	}
}

func TestCipherInPlace(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	iv := bytes.Repeat([]byte{0x22}, 16)
	plain := bytes.Repeat([]byte("0123456789abcdef"), 4)

	c, err := NewCipher(AES256CBC, key)
	if err != nil {
		t.Fatal(err)
	}
	buf := append([]byte(nil), plain...)
	if err := c.EncryptTo(buf, iv, buf); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(buf, plain) {
		t.Fatal("ciphertext equals plaintext")
	}
	if err := c.DecryptTo(buf, iv, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, plain) {
		t.Error("in-place round trip failed")
	}
}

func TestResize(t *testing.T) {
	if got := Resize([]byte{1, 2, 3, 4}, 2); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("truncate = %v", got)
	}
	if got := Resize([]byte{1, 2}, 4); !bytes.Equal(got, []byte{1, 2, PadByte, PadByte}) {
		t.Errorf("pad = %v", got)
	}
}

func TestDeriveBlockKey(t *testing.T) {
	base := bytes.Repeat([]byte{0xaa}, 20)
	block := []byte{0xfe, 0xa7, 0xd2, 0x76, 0x3b, 0x4b, 0x9e, 0x79}

	// SHA1 digest (20 bytes) padded to a 32-byte AES-256 key
	key := DeriveBlockKey(SHA1, base, block, 32)
	want := CalculateHash(append(append([]byte{}, base...), block...), SHA1)
	if !bytes.Equal(key[:20], want) {
		t.Error("derived key prefix should be the digest")
	}
	if !bytes.Equal(key[20:], bytes.Repeat([]byte{PadByte}, 12)) {
		t.Error("derived key should be padded with 0x36")
	}

	// SHA512 digest truncated to 16 bytes
	key = DeriveBlockKey(SHA512, base, block, 16)
	if len(key) != 16 {
		t.Errorf("len = %d; want 16", len(key))
	}
}

func TestCalculateIV(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, 16)
	if got := CalculateIV(SHA1, salt, nil, 16); !bytes.Equal(got, salt) {
		t.Error("nil block key should return the salt")
	}
	block := []byte{0, 0, 0, 0}
	got := CalculateIV(SHA1, salt, block, 16)
	want := CalculateHash(append(append([]byte{}, salt...), block...), SHA1)[:16]
	if !bytes.Equal(got, want) {
		t.Errorf("CalculateIV = %x; want %x", got, want)
	}
}

func TestPadToBlock(t *testing.T) {
	tests := []struct{ in, want int }{{0, 0}, {1, 16}, {16, 16}, {20, 32}, {64, 64}}
	for _, tt := range tests {
		if got := len(PadToBlock(make([]byte, tt.in), 16)); got != tt.want {
			t.Errorf("PadToBlock(%d) len = %d; want %d", tt.in, got, tt.want)
		}
	}
	src := []byte{1, 2, 3}
	out := PadToBlock(src, 16)
	out[0] = 9
	if src[0] != 1 {
		t.Error("PadToBlock must copy")
	}
}

func TestNewHMAC(t *testing.T) {
	// RFC 2202 test case 2
	mac := NewHMAC(SHA1, []byte("Jefe"))
	mac.Write([]byte("what do ya want for nothing?"))
	want := mustHex(t, "effcdf6ae5eb2fa2d27416d5f184df9c259a7c79")
	got := mac.Sum(nil)
	if !EqualMAC(got, want) {
		t.Errorf("HMAC-SHA1 = %x; want %x", got, want)
	}
	if EqualMAC(got, want[:19]) {
		t.Error("EqualMAC should reject different lengths")
	}
}

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 32 || bytes.Equal(a, b) {
		t.Error("RandomBytes should return fresh random data")
	}
}
