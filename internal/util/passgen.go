package util

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Charset selects the character classes used by GenPassword.
type Charset uint8

const (
	Upper Charset = 1 << iota
	Lower
	Numbers
	Symbols

	// Alphanumeric avoids symbols that some document editors reject in
	// their password dialogs.
	Alphanumeric = Upper | Lower | Numbers
	AllChars     = Alphanumeric | Symbols
)

var charsetClasses = []struct {
	set   Charset
	chars string
}{
	{Upper, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
	{Lower, "abcdefghijklmnopqrstuvwxyz"},
	{Numbers, "0123456789"},
	{Symbols, "-=_+!@#$^&()?<>"},
}

// ErrEmptyCharset is returned when no character class is selected.
var ErrEmptyCharset = errors.New("no character classes selected")

// GenPassword returns a random password of length characters drawn
// uniformly from the selected classes. Bytes from crypto/rand that would
// bias the distribution are rejected.
func GenPassword(length int, set Charset) (string, error) {
	var alphabet []byte
	for _, c := range charsetClasses {
		if set&c.set != 0 {
			alphabet = append(alphabet, c.chars...)
		}
	}
	if len(alphabet) == 0 {
		return "", ErrEmptyCharset
	}
	if length <= 0 {
		return "", fmt.Errorf("invalid password length %d", length)
	}

	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("fatal crypto/rand error: %w", err)
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < length {
				out = append(out, alphabet[int(b)%len(alphabet)])
			}
		}
	}
	return string(out), nil
}
