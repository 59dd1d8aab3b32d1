package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ooxcrypt/internal/document"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the password and integrity of a document",
	Long: `Check that the password opens an encrypted document and that its
HMAC matches, without writing any plaintext.

Examples:
  ooxcrypt verify -i report.encrypted.docx -p "mypassword"`,
	RunE: runVerify,
}

var (
	verInput         string
	verPassword      string
	verPasswordStdin bool
	verQuiet         bool
)

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verInput, "input", "i", "", "Encrypted document to verify")
	verifyCmd.Flags().StringVarP(&verPassword, "password", "p", "", "Document password")
	verifyCmd.Flags().BoolVarP(&verPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	verifyCmd.Flags().BoolVarP(&verQuiet, "quiet", "q", false, "Suppress progress output")

	_ = verifyCmd.MarkFlagRequired("input")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := checkInputFile(verInput); err != nil {
		return err
	}
	src := newPasswordSource(cmd, verPassword, verPasswordStdin)
	password, err := src.resolve(false)
	if err != nil {
		return err
	}

	reporter := NewReporter(verQuiet)
	reporter.out = cmd.ErrOrStderr()
	globalReporter = reporter

	err = document.Verify(commandContext(cmd), verInput, password, reporter)
	reporter.Finish()
	if err != nil {
		return describeError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", verInput)
	return nil
}
