package agile

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"math"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/log"
	"ooxcrypt/internal/util"
)

// ⚠️ CRITICAL INVARIANT: segment chaining
//
// The payload is cut into 4096-byte segments. Segment i is an independent
// CBC chain starting at
//
//	IV(i) = Hash(keyDataSalt ++ LE32(i)) resized to blockSize
//
// so segments can be processed in any order. Only the final segment may be
// short; it is zero-padded to the cipher block size.

// maxSegments is the number of distinct 32-bit segment indices.
const maxSegments = int64(math.MaxUint32) + 1

// segmentIV derives the IV of segment i.
func (e *Engine) segmentIV(i uint32) []byte {
	var counter [4]byte
	binary.LittleEndian.PutUint32(counter[:], i)
	return crypto.CalculateIV(e.hashType, e.info.KeyDataSalt, counter[:], e.info.BlockSize)
}

// checkPayloadSize rejects payloads whose segment index would overflow.
func checkPayloadSize(size int64) error {
	segments := (size + SegmentSize - 1) / SegmentSize
	if size < 0 || segments > maxSegments {
		return fmt.Errorf("%w: %d bytes", errors.ErrPayloadTooLarge, size)
	}
	return nil
}

// processBatch encrypts or decrypts data in place. data holds consecutive
// segments starting at index first; its length must be a multiple of the
// cipher block size. Segments are fanned out across the traverser.
func (e *Engine) processBatch(c *crypto.Cipher, data []byte, first int64, encrypt bool) error {
	n := (len(data) + SegmentSize - 1) / SegmentSize
	return e.traverser.Each(n, func(j int) error {
		lo := j * SegmentSize
		hi := min(lo+SegmentSize, len(data))
		seg := data[lo:hi]
		iv := e.segmentIV(uint32(first + int64(j)))
		if encrypt {
			return c.EncryptTo(seg, iv, seg)
		}
		return c.DecryptTo(seg, iv, seg)
	})
}

func (e *Engine) reportProgress(done, total int64) {
	if e.progress != nil {
		e.progress(done, total)
	}
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCancelled, err)
	}
	return nil
}

// Encrypt reads exactly size plaintext bytes from r and writes the
// EncryptedPackage stream to w: the size prefix followed by the encrypted
// segments. The HMAC over the written stream is computed on the way and
// wrapped into the encryption info. SetupEncryption must have run first.
//
// The context is checked between 1 MiB batches.
func (e *Engine) Encrypt(ctx context.Context, r io.Reader, w io.Writer, size int64) error {
	c, err := e.documentCipher()
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if e.info.HmacKey == nil {
		return fmt.Errorf("encrypt: hmac key: %w", errors.ErrNoKey)
	}
	if err := checkPayloadSize(size); err != nil {
		return err
	}

	mac := crypto.NewHMAC(e.hashType, e.info.HmacKey)
	defer crypto.SecureZeroHash(mac)
	out := io.MultiWriter(w, mac)

	prefix := make([]byte, SizePrefixLen)
	binary.LittleEndian.PutUint64(prefix, uint64(size))
	if _, err := out.Write(prefix); err != nil {
		return fmt.Errorf("write size: %w", err)
	}

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	var done int64
	for done < size {
		if err := cancelled(ctx); err != nil {
			return err
		}

		n := int(min(int64(len(buf)), size-done))
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("read plaintext: %w: input shorter than %d bytes", errors.ErrTruncated, size)
			}
			return fmt.Errorf("read plaintext: %w", err)
		}

		padded := roundUp(n, e.info.BlockSize)
		clear(buf[n:padded])
		if err := e.processBatch(c, buf[:padded], done/SegmentSize, true); err != nil {
			return fmt.Errorf("encrypt segment: %w", err)
		}
		if _, err := out.Write(buf[:padded]); err != nil {
			return fmt.Errorf("write encrypted package: %w", err)
		}

		done += int64(n)
		e.reportProgress(done, size)
	}

	e.info.HmacHash = mac.Sum(nil)
	if err := e.EncryptHmacValue(); err != nil {
		return err
	}
	e.logger.Debug("encrypted package",
		log.Int64("bytes", size),
		log.Int64("segments", (size+SegmentSize-1)/SegmentSize))
	return nil
}

// Decrypt reads an EncryptedPackage stream from r and writes the plaintext
// to w, truncated to the stored size. When the HMAC key is known the HMAC
// over the whole stream is recomputed for CheckDataIntegrity. Bytes after
// the last needed segment are hashed but not decrypted.
//
// The context is checked between 1 MiB batches.
func (e *Engine) Decrypt(ctx context.Context, r io.Reader, w io.Writer) error {
	c, err := e.documentCipher()
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	prefix := make([]byte, SizePrefixLen)
	if _, err := io.ReadFull(r, prefix); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("read size: %w", errors.ErrTruncated)
		}
		return fmt.Errorf("read size: %w", err)
	}
	stored := binary.LittleEndian.Uint64(prefix)
	if stored > math.MaxInt64 {
		return fmt.Errorf("%w: %d bytes", errors.ErrPayloadTooLarge, stored)
	}
	size := int64(stored)
	if err := checkPayloadSize(size); err != nil {
		return err
	}

	var mac hash.Hash
	if e.info.HmacKey != nil {
		mac = crypto.NewHMAC(e.hashType, e.info.HmacKey)
		defer crypto.SecureZeroHash(mac)
		mac.Write(prefix)
	}
	e.info.HmacCalculatedHash = nil

	buf := util.GetMiBBuffer()
	defer util.PutMiBBuffer(buf)

	var done, segment int64
	for {
		if err := cancelled(ctx); err != nil {
			return err
		}

		n, rerr := io.ReadFull(r, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return fmt.Errorf("read encrypted package: %w", rerr)
		}
		if n == 0 {
			break
		}
		if mac != nil {
			mac.Write(buf[:n])
		}

		if remaining := size - done; remaining > 0 {
			plainN := int(min(remaining, int64(n)))
			cipherN := roundUp(plainN, e.info.BlockSize)
			if cipherN > n {
				return fmt.Errorf("decrypt segment %d: %w", segment+int64(plainN/SegmentSize), errors.ErrTruncated)
			}
			if err := e.processBatch(c, buf[:cipherN], segment, false); err != nil {
				return fmt.Errorf("decrypt segment: %w", err)
			}
			if _, err := w.Write(buf[:plainN]); err != nil {
				return fmt.Errorf("write plaintext: %w", err)
			}
			done += int64(plainN)
			e.reportProgress(done, size)
		}
		segment += int64(n / SegmentSize)

		if rerr != nil {
			break
		}
	}

	if done < size {
		return fmt.Errorf("decrypt: %w: %d of %d bytes present", errors.ErrTruncated, done, size)
	}
	if mac != nil {
		e.info.HmacCalculatedHash = mac.Sum(nil)
	}
	e.logger.Debug("decrypted package",
		log.Int64("bytes", size),
		log.Bool("hmac", mac != nil))
	return nil
}
