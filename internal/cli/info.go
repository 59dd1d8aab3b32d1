package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ooxcrypt/internal/crypto"
	"ooxcrypt/internal/document"
	"ooxcrypt/internal/util"
)

var infoCmd = &cobra.Command{
	Use:   "info <document>",
	Short: "Show the encryption parameters of a document",
	Long: `Print the cipher, hash and spin count recorded in a document's
EncryptionInfo stream. No password is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := checkInputFile(args[0]); err != nil {
		return err
	}
	s, err := document.Inspect(args[0])
	if err != nil {
		return describeError(err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Preset:\t%s\n", s.Preset)
	fmt.Fprintf(w, "Cipher:\t%s-%d %s\n", s.CipherAlgorithm, s.KeyBits, s.CipherChaining)
	fmt.Fprintf(w, "Hash:\t%s (%d bytes)\n", s.HashAlgorithm, s.HashSize)
	fmt.Fprintf(w, "Spin count:\t%d\n", s.SpinCount)
	fmt.Fprintf(w, "Salt size:\t%d\n", s.SaltSize)
	fmt.Fprintf(w, "Key data salt:\t%s\n", crypto.HashToString(s.KeyDataSalt))
	fmt.Fprintf(w, "Password salt:\t%s\n", crypto.HashToString(s.PasswordSalt))
	fmt.Fprintf(w, "Plaintext size:\t%s (%d bytes)\n", util.Sizeify(int64(s.PlaintextSize)), s.PlaintextSize)
	fmt.Fprintf(w, "Package size:\t%s (%d bytes)\n", util.Sizeify(s.PackageSize), s.PackageSize)
	return w.Flush()
}
