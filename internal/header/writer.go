package header

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// The write side spells prefixes out in the element names: encoding/xml
// would otherwise declare a fresh namespace on every element, which Office
// does not accept.

type xmlOutParams struct {
	SaltSize        int    `xml:"saltSize,attr"`
	BlockSize       int    `xml:"blockSize,attr"`
	KeyBits         int    `xml:"keyBits,attr"`
	HashSize        int    `xml:"hashSize,attr"`
	CipherAlgorithm string `xml:"cipherAlgorithm,attr"`
	CipherChaining  string `xml:"cipherChaining,attr"`
	HashAlgorithm   string `xml:"hashAlgorithm,attr"`
	SaltValue       string `xml:"saltValue,attr"`
}

type xmlOutPasswordKey struct {
	SpinCount string `xml:"spinCount,attr"`
	xmlOutParams
	EncryptedVerifierHashInput string `xml:"encryptedVerifierHashInput,attr"`
	EncryptedVerifierHashValue string `xml:"encryptedVerifierHashValue,attr"`
	EncryptedKeyValue          string `xml:"encryptedKeyValue,attr"`
}

type xmlOutKeyEncryptor struct {
	URI          string            `xml:"uri,attr"`
	EncryptedKey xmlOutPasswordKey `xml:"p:encryptedKey"`
}

type xmlOutDataIntegrity struct {
	EncryptedHmacKey   string `xml:"encryptedHmacKey,attr"`
	EncryptedHmacValue string `xml:"encryptedHmacValue,attr"`
}

type xmlOutEncryption struct {
	XMLName       xml.Name             `xml:"encryption"`
	Xmlns         string               `xml:"xmlns,attr"`
	XmlnsP        string               `xml:"xmlns:p,attr"`
	KeyData       xmlOutParams         `xml:"keyData"`
	DataIntegrity xmlOutDataIntegrity  `xml:"dataIntegrity"`
	KeyEncryptors []xmlOutKeyEncryptor `xml:"keyEncryptors>keyEncryptor"`
}

// Writer handles writing the EncryptionInfo stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a descriptor writer for the given output stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteDescriptor writes the version prefix followed by the XML descriptor.
// Returns the number of bytes written and any error.
//
// Stream format:
//   - Major version: uint16 LE (4)
//   - Minor version: uint16 LE (4)
//   - Flags:         uint32 LE (0x40)
//   - XML descriptor, UTF-8, binary attributes base64
func (w *Writer) WriteDescriptor(d *Descriptor) (int, error) {
	body, err := MarshalDescriptor(d)
	if err != nil {
		return 0, err
	}

	var total int
	n, err := w.w.Write(prefix())
	total += n
	if err != nil {
		return total, fmt.Errorf("write version: %w", err)
	}
	n, err = w.w.Write(body)
	total += n
	if err != nil {
		return total, fmt.Errorf("write descriptor: %w", err)
	}
	return total, nil
}

// MarshalDescriptor renders the XML part of the EncryptionInfo stream,
// including the XML declaration.
func MarshalDescriptor(d *Descriptor) ([]byte, error) {
	doc := xmlOutEncryption{
		Xmlns:   NamespaceEncryption,
		XmlnsP:  NamespacePassword,
		KeyData: outParams(&d.KeyData),
		DataIntegrity: xmlOutDataIntegrity{
			EncryptedHmacKey:   b64(d.EncryptedHmacKey),
			EncryptedHmacValue: b64(d.EncryptedHmacValue),
		},
		KeyEncryptors: []xmlOutKeyEncryptor{{
			URI: KeyEncryptorPassword,
			EncryptedKey: xmlOutPasswordKey{
				SpinCount:                  strconv.FormatUint(uint64(d.Password.SpinCount), 10),
				xmlOutParams:               outParams(&d.Password.CipherParams),
				EncryptedVerifierHashInput: b64(d.Password.EncryptedVerifierHashInput),
				EncryptedVerifierHashValue: b64(d.Password.EncryptedVerifierHashValue),
				EncryptedKeyValue:          b64(d.Password.EncryptedKeyValue),
			},
		}},
	}

	body, err := xml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}
	out := make([]byte, 0, len(declaration)+len(body))
	out = append(out, declaration...)
	return append(out, body...), nil
}

const declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

func outParams(c *CipherParams) xmlOutParams {
	return xmlOutParams{
		SaltSize:        c.SaltSize,
		BlockSize:       c.BlockSize,
		KeyBits:         c.KeyBits,
		HashSize:        c.HashSize,
		CipherAlgorithm: c.CipherAlgorithm,
		CipherChaining:  c.CipherChaining,
		HashAlgorithm:   c.HashAlgorithm,
		SaltValue:       b64(c.SaltValue),
	}
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
