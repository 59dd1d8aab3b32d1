package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ooxcrypt/internal/document"
	"ooxcrypt/internal/errors"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a password-protected document",
	Long: `Decrypt a password-protected document back to its plaintext package.

The password is checked before any output is written. If the integrity
check fails the output is removed unless --force is given.

Examples:
  # Decrypt a file with a password
  ooxcrypt decrypt -i report.encrypted.docx -o report.docx -p "mypassword"

  # Decrypt with auto-detection of output name
  ooxcrypt decrypt -i report.encrypted.docx

  # Keep the output even if the integrity check fails
  ooxcrypt decrypt -i damaged.docx -o recovered.docx --force

  # Read password from stdin (for scripts)
  echo "mypassword" | ooxcrypt decrypt -i report.encrypted.docx -P`,
	RunE: runDecrypt,
}

// Decrypt flags
var (
	decInput         string
	decOutput        string
	decPassword      string
	decPasswordStdin bool
	decForce         bool
	decConcurrency   int
	decQuiet         bool
	decYes           bool
)

func init() {
	rootCmd.AddCommand(decryptCmd)

	// Input/Output
	decryptCmd.Flags().StringVarP(&decInput, "input", "i", "", "Encrypted document to decrypt")
	decryptCmd.Flags().StringVarP(&decOutput, "output", "o", "", "Output file path (auto-detected if not specified)")

	// Credentials
	decryptCmd.Flags().StringVarP(&decPassword, "password", "p", "", "Decryption password")
	decryptCmd.Flags().BoolVarP(&decPasswordStdin, "password-stdin", "P", false, "Read password from stdin")

	// Decryption options
	decryptCmd.Flags().BoolVar(&decForce, "force", false, "Keep the output despite an integrity failure")
	decryptCmd.Flags().IntVar(&decConcurrency, "concurrency", 0, "Segments processed in parallel (0 = automatic)")

	// Other
	decryptCmd.Flags().BoolVarP(&decQuiet, "quiet", "q", false, "Suppress progress output")
	decryptCmd.Flags().BoolVarP(&decYes, "yes", "y", false, "Overwrite output file without prompting")

	_ = decryptCmd.MarkFlagRequired("input")
}

// defaultDecryptOutput drops the ".encrypted" marker added by
// defaultEncryptOutput, or inserts ".decrypted" when there is none.
func defaultDecryptOutput(input string) string {
	if trimmed, ok := strings.CutSuffix(input, ".encrypted"); ok && filepath.Base(input) != ".encrypted" {
		return trimmed
	}
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if trimmed, ok := strings.CutSuffix(base, ".encrypted"); ok {
		return trimmed + ext
	}
	return base + ".decrypted" + ext
}

// checkInputFile verifies that path names an existing regular file.
func checkInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("input file is required (-i)")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("input must be a file, not a directory: %s", path)
	}
	return nil
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	if err := checkInputFile(decInput); err != nil {
		return err
	}

	outputFile := decOutput
	if outputFile == "" {
		outputFile = defaultDecryptOutput(decInput)
	}
	overwrite, err := confirmOverwrite(outputFile, decYes)
	if err != nil {
		return err
	}

	src := newPasswordSource(cmd, decPassword, decPasswordStdin)
	password, err := src.resolve(false)
	if err != nil {
		return err
	}

	reporter := NewReporter(decQuiet)
	reporter.out = cmd.ErrOrStderr()
	globalReporter = reporter

	var kept bool
	req := &document.DecryptRequest{
		Input:       decInput,
		Output:      outputFile,
		Password:    password,
		Force:       decForce,
		Overwrite:   overwrite,
		Kept:        &kept,
		Concurrency: decConcurrency,
		Reporter:    reporter,
	}
	err = document.Decrypt(commandContext(cmd), req)
	reporter.Finish()
	if err != nil {
		return describeError(err)
	}

	if kept {
		reporter.PrintWarning("integrity check failed; output kept because of --force")
	}
	reporter.PrintSuccess("Decryption completed successfully: %s", outputFile)
	return nil
}

// describeError adds user-facing hints to the engine's error classes.
func describeError(err error) error {
	switch {
	case errors.IsWrongPassword(err):
		return fmt.Errorf("incorrect password: %w", err)
	case errors.IsIntegrity(err):
		return fmt.Errorf("the document is damaged or modified (use --force to keep the output): %w", err)
	case errors.IsMalformed(err):
		return fmt.Errorf("not a supported encrypted document: %w", err)
	}
	return err
}
