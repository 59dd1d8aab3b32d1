package document

import (
	"os"
	"path/filepath"

	"ooxcrypt/internal/agile"
	"ooxcrypt/internal/errors"
)

// Validate checks that the EncryptRequest names a readable input, an
// output and valid parameters. An empty password is allowed.
func (req *EncryptRequest) Validate() error {
	if err := validatePaths(req.Input, req.Output); err != nil {
		return err
	}
	if req.Preset < agile.AES128SHA1 || req.Preset > agile.AES256SHA512 {
		return errors.NewValidationError("Preset", "unknown preset")
	}
	if req.SpinCount > agile.MaxSpinCount {
		return errors.NewValidationError("SpinCount", "exceeds the maximum spin count")
	}
	return nil
}

// Validate checks that the DecryptRequest names a readable input and an
// output.
func (req *DecryptRequest) Validate() error {
	return validatePaths(req.Input, req.Output)
}

func validatePaths(input, output string) error {
	if input == "" {
		return errors.ErrMissingInput
	}
	if output == "" {
		return errors.NewValidationError("Output", "output file path is required")
	}
	if filepath.Clean(input) == filepath.Clean(output) {
		return errors.NewValidationError("Output", "output must differ from input")
	}
	stat, err := os.Stat(input)
	if err != nil {
		return errors.NewFileError("stat", input, err)
	}
	if stat.IsDir() {
		return errors.NewValidationError("Input", "input must be a file")
	}
	return nil
}
