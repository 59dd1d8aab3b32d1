// Package header handles the EncryptionInfo stream of agile-encrypted OOXML
// documents: an 8-byte version prefix followed by the XML encryption
// descriptor.
// This is AUDIT-CRITICAL code - changes here directly affect file format compatibility.
package header

import "encoding/binary"

// Version constants of the agile EncryptionInfo stream.
const (
	VersionMajor = 4
	VersionMinor = 4
	Flags        = 0x00000040
)

// PrefixSize is the length of the binary prefix in front of the XML.
const PrefixSize = 8

// XML namespaces and key encryptor URIs.
const (
	NamespaceEncryption  = "http://schemas.microsoft.com/office/2006/encryption"
	NamespacePassword    = "http://schemas.microsoft.com/office/2006/keyEncryptor/password"
	NamespaceCertificate = "http://schemas.microsoft.com/office/2006/keyEncryptor/certificate"

	KeyEncryptorPassword    = NamespacePassword
	KeyEncryptorCertificate = NamespaceCertificate
)

// Limits applied when reading a descriptor from an untrusted file.
const (
	// MaxSpinCount bounds the password hash iterations a file may request.
	MaxSpinCount = 10_000_000
	// MaxDescriptorSize bounds the XML read into memory.
	MaxDescriptorSize = 1 << 20
	// MaxSaltSize is the largest salt the format allows.
	MaxSaltSize = 65536
)

// CipherParams are the attributes shared by <keyData> and <p:encryptedKey>.
type CipherParams struct {
	SaltSize        int
	BlockSize       int
	KeyBits         int
	HashSize        int
	CipherAlgorithm string
	CipherChaining  string
	HashAlgorithm   string
	SaltValue       []byte
}

// PasswordKeyEncryptor is the password <keyEncryptor> entry.
type PasswordKeyEncryptor struct {
	CipherParams
	SpinCount                  uint32
	EncryptedVerifierHashInput []byte
	EncryptedVerifierHashValue []byte
	EncryptedKeyValue          []byte
}

// Descriptor is the parsed EncryptionInfo stream. Only the password key
// encryptor is retained; certificate encryptors are skipped on read.
type Descriptor struct {
	KeyData            CipherParams
	EncryptedHmacKey   []byte
	EncryptedHmacValue []byte
	Password           PasswordKeyEncryptor
}

// prefix returns the 8-byte binary version prefix.
func prefix() []byte {
	b := make([]byte, PrefixSize)
	binary.LittleEndian.PutUint16(b[0:], VersionMajor)
	binary.LittleEndian.PutUint16(b[2:], VersionMinor)
	binary.LittleEndian.PutUint32(b[4:], Flags)
	return b
}
