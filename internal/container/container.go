// Package container stores the two streams of an encrypted document in a
// ZIP archive: EncryptionInfo and EncryptedPackage. Entries are stored
// uncompressed since their content is already ciphertext.
package container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"

	ooxerrors "ooxcrypt/internal/errors"
)

// Stream names inside the archive.
const (
	InfoStream    = "EncryptionInfo"
	PackageStream = "EncryptedPackage"
)

// ErrMissingStream is returned by Open when the archive lacks one of the
// two streams.
var ErrMissingStream = errors.New("container: missing stream")

// Writer creates a container file. Entries are written in the order they
// are requested; creating one entry finishes the previous one. The
// package is normally written first since the encryption info carries the
// HMAC of the package.
//
// On any error the caller should call Abort to remove the partial file.
type Writer struct {
	path    string
	file    *os.File
	zw      *zip.Writer
	written map[string]bool
	closed  bool
}

// Create creates path for writing. It refuses to overwrite an existing
// file unless overwrite is set.
func Create(path string, overwrite bool) (*Writer, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ooxerrors.NewFileError("create", path, ooxerrors.ErrFileExists)
		}
		return nil, ooxerrors.NewFileError("create", path, err)
	}
	return &Writer{
		path:    path,
		file:    file,
		zw:      zip.NewWriter(file),
		written: make(map[string]bool, 2),
	}, nil
}

func (w *Writer) entry(name string) (io.Writer, error) {
	if w.closed {
		return nil, fmt.Errorf("container: %s: writer closed", name)
	}
	if w.written[name] {
		return nil, fmt.Errorf("container: %s written twice", name)
	}
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: time.Now(),
	}
	entry, err := w.zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("create entry %s: %w", name, err)
	}
	w.written[name] = true
	return entry, nil
}

// Info starts the EncryptionInfo entry.
func (w *Writer) Info() (io.Writer, error) {
	return w.entry(InfoStream)
}

// Package starts the EncryptedPackage entry.
func (w *Writer) Package() (io.Writer, error) {
	return w.entry(PackageStream)
}

// Close finishes the archive. Both streams must have been written.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	for _, name := range []string{InfoStream, PackageStream} {
		if !w.written[name] {
			return fmt.Errorf("%w: %s not written", ErrMissingStream, name)
		}
	}
	w.closed = true
	if err := w.zw.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("close zip writer: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return ooxerrors.NewFileError("close", w.path, err)
	}
	return nil
}

// Abort closes the file and removes it.
func (w *Writer) Abort() {
	if !w.closed {
		w.closed = true
		_ = w.file.Close()
	}
	_ = os.Remove(w.path)
}

// Reader gives access to the streams of a container file.
type Reader struct {
	zr   *zip.ReadCloser
	info *zip.File
	pkg  *zip.File
}

// Open opens a container file and locates both streams.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, ooxerrors.NewFileError("open", path, err)
	}
	r := &Reader{zr: zr}
	for _, f := range zr.File {
		switch f.Name {
		case InfoStream:
			r.info = f
		case PackageStream:
			r.pkg = f
		}
	}
	switch {
	case r.info == nil:
		_ = zr.Close()
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingStream, InfoStream, path)
	case r.pkg == nil:
		_ = zr.Close()
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingStream, PackageStream, path)
	}
	return r, nil
}

// Info opens the EncryptionInfo stream.
func (r *Reader) Info() (io.ReadCloser, error) {
	return r.info.Open()
}

// Package opens the EncryptedPackage stream.
func (r *Reader) Package() (io.ReadCloser, error) {
	return r.pkg.Open()
}

// PackageSize is the stored length of the EncryptedPackage stream.
func (r *Reader) PackageSize() int64 {
	return int64(r.pkg.UncompressedSize64)
}

// Close closes the archive.
func (r *Reader) Close() error {
	return r.zr.Close()
}
