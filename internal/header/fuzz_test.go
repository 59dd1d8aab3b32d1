package header

import (
	"bytes"
	"testing"
)

// FuzzDescriptorRead tests descriptor parsing with arbitrary input to ensure robustness.
// The parser should reject malformed streams gracefully without panics.
// Run with: go test -fuzz=FuzzDescriptorRead -fuzztime=60s
func FuzzDescriptorRead(f *testing.F) {
	var buf bytes.Buffer
	NewWriter(&buf).WriteDescriptor(testDescriptor())
	f.Add(buf.Bytes())

	// Also add truncated versions
	fullData := buf.Bytes()
	for i := 4; i < len(fullData); i += 97 {
		f.Add(fullData[:i])
	}

	f.Add(append(prefix(), officeSample...))
	f.Add(make([]byte, 100))
	f.Add([]byte("not a valid descriptor at all"))

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := NewReader(bytes.NewReader(data)).ReadDescriptor()
		if err != nil {
			return
		}
		if d.Password.SpinCount > MaxSpinCount {
			t.Errorf("accepted spin count %d", d.Password.SpinCount)
		}
		if len(d.KeyData.SaltValue) != d.KeyData.SaltSize {
			t.Errorf("salt length %d != saltSize %d", len(d.KeyData.SaltValue), d.KeyData.SaltSize)
		}
	})
}
