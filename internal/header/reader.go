package header

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"ooxcrypt/internal/errors"
)

// xmlParams mirrors CipherParams with every attribute kept as raw text, so
// missing and invalid values can be told apart.
type xmlParams struct {
	SaltSize        string `xml:"saltSize,attr"`
	BlockSize       string `xml:"blockSize,attr"`
	KeyBits         string `xml:"keyBits,attr"`
	HashSize        string `xml:"hashSize,attr"`
	CipherAlgorithm string `xml:"cipherAlgorithm,attr"`
	CipherChaining  string `xml:"cipherChaining,attr"`
	HashAlgorithm   string `xml:"hashAlgorithm,attr"`
	SaltValue       string `xml:"saltValue,attr"`
}

type xmlPasswordKey struct {
	xmlParams
	SpinCount                  string `xml:"spinCount,attr"`
	EncryptedVerifierHashInput string `xml:"encryptedVerifierHashInput,attr"`
	EncryptedVerifierHashValue string `xml:"encryptedVerifierHashValue,attr"`
	EncryptedKeyValue          string `xml:"encryptedKeyValue,attr"`
}

type xmlKeyEncryptor struct {
	URI      string          `xml:"uri,attr"`
	Password *xmlPasswordKey `xml:"http://schemas.microsoft.com/office/2006/keyEncryptor/password encryptedKey"`
}

type xmlDataIntegrity struct {
	EncryptedHmacKey   string `xml:"encryptedHmacKey,attr"`
	EncryptedHmacValue string `xml:"encryptedHmacValue,attr"`
}

type xmlEncryption struct {
	XMLName       xml.Name          `xml:"http://schemas.microsoft.com/office/2006/encryption encryption"`
	KeyData       *xmlParams        `xml:"keyData"`
	DataIntegrity *xmlDataIntegrity `xml:"dataIntegrity"`
	KeyEncryptors []xmlKeyEncryptor `xml:"keyEncryptors>keyEncryptor"`
}

// Reader handles reading the EncryptionInfo stream.
type Reader struct {
	r io.Reader
}

// NewReader creates a descriptor reader for the given input stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadDescriptor reads the version prefix and parses the XML descriptor.
// Every failure caused by the stream content matches
// errors.ErrMalformedDescriptor; an unknown stream version matches
// errors.ErrUnsupported. I/O errors are wrapped and returned as is.
func (r *Reader) ReadDescriptor() (*Descriptor, error) {
	pre := make([]byte, PrefixSize)
	if _, err := io.ReadFull(r.r, pre); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.NewDescriptorError("version", errors.ErrTruncated)
		}
		return nil, fmt.Errorf("read version: %w", err)
	}

	major := binary.LittleEndian.Uint16(pre[0:])
	minor := binary.LittleEndian.Uint16(pre[2:])
	if major != VersionMajor || minor != VersionMinor {
		return nil, fmt.Errorf("%w: encryption info version %d.%d", errors.ErrUnsupported, major, minor)
	}
	if flags := binary.LittleEndian.Uint32(pre[4:]); flags != Flags {
		return nil, errors.NewDescriptorError("flags", fmt.Errorf("got %#x, want %#x", flags, Flags))
	}

	body, err := io.ReadAll(io.LimitReader(r.r, MaxDescriptorSize+1))
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	if len(body) > MaxDescriptorSize {
		return nil, errors.NewDescriptorError("encryption", fmt.Errorf("descriptor exceeds %d bytes", MaxDescriptorSize))
	}

	return ParseDescriptor(body)
}

// ParseDescriptor parses the XML part of the EncryptionInfo stream.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var doc xmlEncryption
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewDescriptorError("encryption", err)
	}
	if doc.KeyData == nil {
		return nil, errors.NewDescriptorError("keyData", errMissing)
	}
	if doc.DataIntegrity == nil {
		return nil, errors.NewDescriptorError("dataIntegrity", errMissing)
	}

	var pw *xmlPasswordKey
	for _, ke := range doc.KeyEncryptors {
		if ke.URI == KeyEncryptorPassword && ke.Password != nil {
			pw = ke.Password
			break
		}
	}
	if pw == nil {
		return nil, errors.NewDescriptorError("keyEncryptor", fmt.Errorf("no password key encryptor"))
	}

	p := &attrParser{}
	d := &Descriptor{
		KeyData:            p.params("keyData", doc.KeyData),
		EncryptedHmacKey:   p.binary("dataIntegrity.encryptedHmacKey", doc.DataIntegrity.EncryptedHmacKey),
		EncryptedHmacValue: p.binary("dataIntegrity.encryptedHmacValue", doc.DataIntegrity.EncryptedHmacValue),
		Password: PasswordKeyEncryptor{
			CipherParams:               p.params("encryptedKey", &pw.xmlParams),
			SpinCount:                  p.spinCount("encryptedKey.spinCount", pw.SpinCount),
			EncryptedVerifierHashInput: p.binary("encryptedKey.encryptedVerifierHashInput", pw.EncryptedVerifierHashInput),
			EncryptedVerifierHashValue: p.binary("encryptedKey.encryptedVerifierHashValue", pw.EncryptedVerifierHashValue),
			EncryptedKeyValue:          p.binary("encryptedKey.encryptedKeyValue", pw.EncryptedKeyValue),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	return d, nil
}

var errMissing = errors.New("missing")

// attrParser converts attribute text and keeps the first failure.
type attrParser struct {
	err error
}

func (p *attrParser) fail(field string, err error) {
	if p.err == nil {
		p.err = errors.NewDescriptorError(field, err)
	}
}

func (p *attrParser) text(field, v string) string {
	if v == "" {
		p.fail(field, errMissing)
	}
	return v
}

func (p *attrParser) int(field, v string, lo, hi int) int {
	if v == "" {
		p.fail(field, errMissing)
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(field, err)
		return 0
	}
	if n < lo || n > hi {
		p.fail(field, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi))
		return 0
	}
	return n
}

func (p *attrParser) spinCount(field, v string) uint32 {
	if v == "" {
		p.fail(field, errMissing)
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		p.fail(field, err)
		return 0
	}
	if n > MaxSpinCount {
		p.fail(field, fmt.Errorf("%w: %d > %d", errors.ErrSpinCountTooLarge, n, MaxSpinCount))
		return 0
	}
	return uint32(n)
}

func (p *attrParser) binary(field, v string) []byte {
	if v == "" {
		p.fail(field, errMissing)
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		p.fail(field, err)
		return nil
	}
	return b
}

func (p *attrParser) params(elem string, x *xmlParams) CipherParams {
	c := CipherParams{
		SaltSize:        p.int(elem+".saltSize", x.SaltSize, 1, MaxSaltSize),
		BlockSize:       p.int(elem+".blockSize", x.BlockSize, 2, 4096),
		KeyBits:         p.int(elem+".keyBits", x.KeyBits, 8, 4096),
		HashSize:        p.int(elem+".hashSize", x.HashSize, 1, 64),
		CipherAlgorithm: p.text(elem+".cipherAlgorithm", x.CipherAlgorithm),
		CipherChaining:  p.text(elem+".cipherChaining", x.CipherChaining),
		HashAlgorithm:   p.text(elem+".hashAlgorithm", x.HashAlgorithm),
		SaltValue:       p.binary(elem+".saltValue", x.SaltValue),
	}
	if p.err == nil && len(c.SaltValue) != c.SaltSize {
		p.fail(elem+".saltValue", fmt.Errorf("length %d, saltSize %d", len(c.SaltValue), c.SaltSize))
	}
	return c
}
