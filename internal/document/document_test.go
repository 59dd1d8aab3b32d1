package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ooxcrypt/internal/agile"
	"ooxcrypt/internal/container"
	ooxerrors "ooxcrypt/internal/errors"
)

const testSpinCount = 1000

func writePlaintext(t *testing.T, dir string, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(data)
	path := filepath.Join(dir, "plain.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, data
}

func encryptFile(t *testing.T, dir string, size int, password string) (string, []byte) {
	t.Helper()
	in, data := writePlaintext(t, dir, size)
	out := filepath.Join(dir, "doc.docx")
	err := Encrypt(context.Background(), &EncryptRequest{
		Input:     in,
		Output:    out,
		Password:  password,
		Preset:    agile.AES128SHA1,
		SpinCount: testSpinCount,
	})
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	return out, data
}

// tamper rewrites the container at path with one package byte flipped.
func tamper(t *testing.T, path string, offset int) {
	t.Helper()
	r, err := container.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	read := func(open func() (io.ReadCloser, error)) []byte {
		rc, err := open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	info, pkg := read(r.Info), read(r.Package)
	r.Close()

	pkg[offset] ^= 0x01
	w, err := container.Create(path, true)
	if err != nil {
		t.Fatal(err)
	}
	pw, _ := w.Package()
	pw.Write(pkg)
	iw, _ := w.Info()
	iw.Write(info)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 4097, 2*1024*1024 + 3} {
		dir := t.TempDir()
		doc, data := encryptFile(t, dir, size, "correct horse")

		out := filepath.Join(dir, "plain.out")
		if err := Decrypt(context.Background(), &DecryptRequest{
			Input:    doc,
			Output:   out,
			Password: "correct horse",
		}); err != nil {
			t.Fatalf("size %d: Decrypt() failed: %v", size, err)
		}
		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("size %d: plaintext mismatch", size)
		}
		if _, err := os.Stat(out + incompleteSuffix); !os.IsNotExist(err) {
			t.Errorf("size %d: incomplete file left behind", size)
		}
	}
}

func TestDecryptWrongPasswordCreatesNoOutput(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 5000, "right")

	out := filepath.Join(dir, "plain.out")
	err := Decrypt(context.Background(), &DecryptRequest{Input: doc, Output: out, Password: "wrong"})
	if !errors.Is(err, ooxerrors.ErrWrongPassword) {
		t.Fatalf("Decrypt() = %v; want ErrWrongPassword", err)
	}
	for _, p := range []string{out, out + incompleteSuffix} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s exists after wrong password", p)
		}
	}
}

func TestDecryptTamperedRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 10000, "pw")
	tamper(t, doc, agile.SizePrefixLen+100)

	out := filepath.Join(dir, "plain.out")
	err := Decrypt(context.Background(), &DecryptRequest{Input: doc, Output: out, Password: "pw"})
	if !errors.Is(err, ooxerrors.ErrIntegrity) {
		t.Fatalf("Decrypt() = %v; want ErrIntegrity", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("damaged output kept without Force")
	}
	if _, err := os.Stat(out + incompleteSuffix); !os.IsNotExist(err) {
		t.Error("incomplete output left behind")
	}
}

func TestDecryptTamperedForceKeepsOutput(t *testing.T) {
	dir := t.TempDir()
	doc, data := encryptFile(t, dir, 10000, "pw")
	// Flip a byte in the last segment so the first segment still decrypts
	tamper(t, doc, agile.SizePrefixLen+2*agile.SegmentSize+5)

	out := filepath.Join(dir, "plain.out")
	var kept bool
	err := Decrypt(context.Background(), &DecryptRequest{
		Input: doc, Output: out, Password: "pw", Force: true, Kept: &kept,
	})
	if err != nil {
		t.Fatalf("Decrypt(Force) = %v", err)
	}
	if !kept {
		t.Error("Kept not set")
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("output length %d; want %d", len(got), len(data))
	}
	if !bytes.Equal(got[:agile.SegmentSize], data[:agile.SegmentSize]) {
		t.Error("undamaged segment differs")
	}
	if bytes.Equal(got, data) {
		t.Error("tampered output decrypted cleanly")
	}
}

func TestDecryptRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 10, "pw")
	out := filepath.Join(dir, "exists")
	if err := os.WriteFile(out, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Decrypt(context.Background(), &DecryptRequest{Input: doc, Output: out, Password: "pw"})
	if !errors.Is(err, ooxerrors.ErrFileExists) {
		t.Errorf("Decrypt() = %v; want ErrFileExists", err)
	}

	if err := Decrypt(context.Background(), &DecryptRequest{
		Input: doc, Output: out, Password: "pw", Overwrite: true,
	}); err != nil {
		t.Errorf("Decrypt(Overwrite) = %v", err)
	}
}

func TestEncryptRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 10, "pw")
	before, _ := os.ReadFile(doc)

	err := Encrypt(context.Background(), &EncryptRequest{
		Input: filepath.Join(dir, "plain.bin"), Output: doc, Password: "pw",
		Preset: agile.AES128SHA1, SpinCount: testSpinCount,
	})
	if !errors.Is(err, ooxerrors.ErrFileExists) {
		t.Errorf("Encrypt() = %v; want ErrFileExists", err)
	}
	after, _ := os.ReadFile(doc)
	if !bytes.Equal(before, after) {
		t.Error("existing container modified")
	}
}

func TestMissingInput(t *testing.T) {
	if err := Encrypt(context.Background(), &EncryptRequest{}); !errors.Is(err, ooxerrors.ErrMissingInput) {
		t.Errorf("Encrypt() = %v", err)
	}
	if err := Decrypt(context.Background(), &DecryptRequest{}); !errors.Is(err, ooxerrors.ErrMissingInput) {
		t.Errorf("Decrypt() = %v", err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 9000, "pw")

	if err := Verify(context.Background(), doc, "pw", nil); err != nil {
		t.Errorf("Verify() = %v", err)
	}
	if err := Verify(context.Background(), doc, "nope", nil); !errors.Is(err, ooxerrors.ErrWrongPassword) {
		t.Errorf("Verify(wrong) = %v", err)
	}
	tamper(t, doc, agile.SizePrefixLen+1)
	if err := Verify(context.Background(), doc, "pw", nil); !errors.Is(err, ooxerrors.ErrIntegrity) {
		t.Errorf("Verify(tampered) = %v", err)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	doc, data := encryptFile(t, dir, 12345, "pw")

	s, err := Inspect(doc)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if s.Preset != agile.AES128SHA1 {
		t.Errorf("Preset = %v", s.Preset)
	}
	if s.SpinCount != testSpinCount || s.KeyBits != 128 || s.HashAlgorithm != "SHA1" {
		t.Errorf("Parameters = %+v", s.Parameters)
	}
	if s.PlaintextSize != uint64(len(data)) {
		t.Errorf("PlaintextSize = %d; want %d", s.PlaintextSize, len(data))
	}
	if want := int64(agile.SizePrefixLen + 12352); s.PackageSize != want {
		t.Errorf("PackageSize = %d; want %d", s.PackageSize, want)
	}
	if len(s.KeyDataSalt) != 16 || len(s.PasswordSalt) != 16 {
		t.Errorf("salt lengths = %d, %d; want 16", len(s.KeyDataSalt), len(s.PasswordSalt))
	}
	if bytes.Equal(s.KeyDataSalt, s.PasswordSalt) {
		t.Error("key data and password salts are equal")
	}
}

func TestInspectNotAContainer(t *testing.T) {
	path, _ := writePlaintext(t, t.TempDir(), 100)
	if _, err := Inspect(path); err == nil {
		t.Error("Inspect() accepted a non-container")
	}
}

func TestReporterReceivesUpdates(t *testing.T) {
	dir := t.TempDir()
	in, _ := writePlaintext(t, dir, 3*1024*1024)

	var mu sync.Mutex
	var statuses []string
	var last float32
	r := NewFuncReporter(
		func(s string) { mu.Lock(); statuses = append(statuses, s); mu.Unlock() },
		func(f float32, info string) { mu.Lock(); last = f; mu.Unlock() },
		nil,
	)
	err := Encrypt(context.Background(), &EncryptRequest{
		Input: in, Output: filepath.Join(dir, "doc"), Password: "pw",
		Preset: agile.AES256SHA512, SpinCount: testSpinCount, Reporter: r,
	})
	if err != nil {
		t.Fatal(err)
	}
	if last != 1 {
		t.Errorf("final progress = %f; want 1", last)
	}
	if len(statuses) == 0 || !strings.HasPrefix(statuses[0], "Deriving") {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestReporterCancel(t *testing.T) {
	dir := t.TempDir()
	in, _ := writePlaintext(t, dir, 4*1024*1024)
	out := filepath.Join(dir, "doc")

	r := NewFuncReporter(nil, nil, nil)
	r.Cancel()
	err := Encrypt(context.Background(), &EncryptRequest{
		Input: in, Output: out, Password: "pw",
		Preset: agile.AES128SHA1, SpinCount: testSpinCount, Reporter: r,
	})
	if !errors.Is(err, ooxerrors.ErrCancelled) {
		t.Fatalf("Encrypt() = %v; want ErrCancelled", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("partial container left behind")
	}

	r.Reset()
	if r.IsCancelled() {
		t.Error("Reset() did not clear cancellation")
	}
}

func TestContextCancel(t *testing.T) {
	dir := t.TempDir()
	doc, _ := encryptFile(t, dir, 10, "pw")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(dir, "plain.out")
	err := Decrypt(ctx, &DecryptRequest{Input: doc, Output: out, Password: "pw"})
	if !ooxerrors.IsCancelled(err) {
		t.Fatalf("Decrypt() = %v; want cancellation", err)
	}
	if _, err := os.Stat(out + incompleteSuffix); !os.IsNotExist(err) {
		t.Error("incomplete output left behind")
	}
}
