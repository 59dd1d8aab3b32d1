package document

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"ooxcrypt/internal/agile"
	"ooxcrypt/internal/container"
	"ooxcrypt/internal/errors"
)

// Summary describes an encrypted container without unlocking it.
type Summary struct {
	agile.Parameters
	Preset agile.Preset

	// PackageSize is the stored length of EncryptedPackage; PlaintextSize
	// is the length recorded in its size prefix.
	PackageSize   int64
	PlaintextSize uint64

	// Salts are public descriptor values.
	KeyDataSalt  []byte
	PasswordSalt []byte
}

// Inspect parses the encryption info of the container at path. No
// password is needed.
func Inspect(path string) (*Summary, error) {
	in, err := container.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	e := agile.NewEngine()
	defer e.Close()

	rc, err := in.Info()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", container.InfoStream, err)
	}
	err = e.ReadEncryptionInfo(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Parameters:  e.Info().Parameters,
		Preset:      e.Preset(),
		PackageSize: in.PackageSize(),

		KeyDataSalt:  bytes.Clone(e.Info().KeyDataSalt),
		PasswordSalt: bytes.Clone(e.Info().SaltValue),
	}

	pr, err := in.Package()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", container.PackageStream, err)
	}
	defer pr.Close()
	var prefix [agile.SizePrefixLen]byte
	if _, err := io.ReadFull(pr, prefix[:]); err != nil {
		return nil, fmt.Errorf("read size: %w", errors.ErrTruncated)
	}
	s.PlaintextSize = binary.LittleEndian.Uint64(prefix[:])
	return s, nil
}
