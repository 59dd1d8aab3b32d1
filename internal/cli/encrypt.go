package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ooxcrypt/internal/agile"
	"ooxcrypt/internal/document"
	"ooxcrypt/internal/util"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a document with a password",
	Long: `Encrypt a file into a password-protected document container holding
the EncryptionInfo and EncryptedPackage streams.

If no password is provided, you will be prompted to enter one interactively
(with confirmation). The password is hidden while typing.

Examples:
  # Encrypt interactively (prompts for password)
  ooxcrypt encrypt -i report.docx -o report.encrypted.docx

  # Encrypt with password on command line (visible in shell history)
  ooxcrypt encrypt -i report.docx -p "mypassword"

  # Use the Office 2010 parameters and a custom spin count
  ooxcrypt encrypt -i data.xlsx --preset AES128SHA1 --spin-count 50000

  # Generate a random password and print it
  ooxcrypt encrypt -i report.docx --generate

  # Read password from stdin (for scripts)
  echo "mypassword" | ooxcrypt encrypt -i report.docx -P`,
	RunE: runEncrypt,
}

// Encrypt flags
var (
	encInput         string
	encOutput        string
	encPassword      string
	encPasswordStdin bool
	encGenerate      bool
	encPreset        string
	encSpinCount     uint32
	encConcurrency   int
	encQuiet         bool
	encYes           bool
)

func init() {
	rootCmd.AddCommand(encryptCmd)

	// Input/Output
	encryptCmd.Flags().StringVarP(&encInput, "input", "i", "", "Input file to encrypt")
	encryptCmd.Flags().StringVarP(&encOutput, "output", "o", "", "Output document path")

	// Credentials
	encryptCmd.Flags().StringVarP(&encPassword, "password", "p", "", "Encryption password")
	encryptCmd.Flags().BoolVarP(&encPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	encryptCmd.Flags().BoolVarP(&encGenerate, "generate", "g", false, "Generate a random password and print it")

	// Parameters
	encryptCmd.Flags().StringVar(&encPreset, "preset", agile.DefaultPreset.String(), "Cipher and hash preset: "+presetNames())
	encryptCmd.Flags().Uint32Var(&encSpinCount, "spin-count", agile.DefaultSpinCount, "Password hash iterations")
	encryptCmd.Flags().IntVar(&encConcurrency, "concurrency", 0, "Segments processed in parallel (0 = automatic)")

	// Other
	encryptCmd.Flags().BoolVarP(&encQuiet, "quiet", "q", false, "Suppress progress output")
	encryptCmd.Flags().BoolVarP(&encYes, "yes", "y", false, "Overwrite output file without prompting")

	_ = encryptCmd.MarkFlagRequired("input")
}

func presetNames() string {
	names := make([]string, len(agile.Presets))
	for i, p := range agile.Presets {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// defaultEncryptOutput inserts ".encrypted" before the extension.
func defaultEncryptOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".encrypted" + ext
}

// confirmOverwrite reports whether an existing path may be replaced,
// prompting on stdin unless yes is set.
func confirmOverwrite(path string, yes bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	if yes {
		return true, nil
	}
	fmt.Fprintf(os.Stderr, "Output file %s already exists. Overwrite? [y/N]: ", path)
	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		return false, fmt.Errorf("operation cancelled")
	}
	return true, nil
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	if encInput == "" {
		return fmt.Errorf("input file is required (-i)")
	}
	info, err := os.Stat(encInput)
	if err != nil {
		return fmt.Errorf("input file not found: %s", encInput)
	}
	if info.IsDir() {
		return fmt.Errorf("input must be a file, not a directory: %s", encInput)
	}

	preset, err := agile.ParsePreset(encPreset)
	if err != nil {
		return fmt.Errorf("--preset: %w", err)
	}
	if encSpinCount == 0 || encSpinCount > agile.MaxSpinCount {
		return fmt.Errorf("--spin-count must be between 1 and %d", agile.MaxSpinCount)
	}

	outputFile := encOutput
	if outputFile == "" {
		outputFile = defaultEncryptOutput(encInput)
	}
	overwrite, err := confirmOverwrite(outputFile, encYes)
	if err != nil {
		return err
	}

	reporter := NewReporter(encQuiet)
	reporter.out = cmd.ErrOrStderr()
	globalReporter = reporter

	var password string
	if encGenerate {
		if password, err = GeneratePassword(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated password: %s\n", password)
	} else {
		src := newPasswordSource(cmd, encPassword, encPasswordStdin)
		if password, err = src.resolve(true); err != nil {
			return err
		}
		if password == "" {
			reporter.PrintWarning("empty password: anyone can open the document")
		} else if IsWeakPassword(password) {
			reporter.PrintWarning("weak password (strength %d/4)", PasswordStrength(password))
		}
	}

	if !encQuiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Encrypting %s (%s) to %s\n", encInput, util.Sizeify(info.Size()), outputFile)
		fmt.Fprintf(cmd.ErrOrStderr(), "Preset: %s, spin count %d\n", preset, encSpinCount)
	}

	req := &document.EncryptRequest{
		Input:       encInput,
		Output:      outputFile,
		Password:    password,
		Preset:      preset,
		SpinCount:   encSpinCount,
		Overwrite:   overwrite,
		Concurrency: encConcurrency,
		Reporter:    reporter,
	}
	err = document.Encrypt(commandContext(cmd), req)
	reporter.Finish()
	if err != nil {
		return err
	}

	reporter.PrintSuccess("Encryption completed successfully: %s", outputFile)
	return nil
}
