// Package cli implements the ooxcrypt command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ooxcrypt/internal/log"
)

// Version is set by main.go
var Version = "dev"

var verbose bool

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "ooxcrypt",
	Short: "Password-encrypt Office Open XML documents",
	Long: `ooxcrypt reads and writes password-protected Office documents using
the OOXML Agile Encryption scheme:
  - Iterated, salted password hashing (SHA-1 to SHA-512)
  - AES-CBC with an independent IV per 4096-byte segment
  - HMAC over the whole encrypted package`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.EnableDebugLogging()
		}
	},
}

// Global reporter for signal handling
var globalReporter *Reporter

// Execute runs the CLI application.
func Execute(version string) error {
	Version = version
	rootCmd.Version = version

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go watchSignals(ctx, sigChan, func() {
		if globalReporter != nil {
			globalReporter.Cancel()
		}
		fmt.Fprintln(os.Stderr, "\nCancelling operation...")
		cancel()
	})

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// watchSignals calls onSignal for the first signal on sigChan. It returns
// without calling onSignal once ctx is done.
func watchSignals(ctx context.Context, sigChan <-chan os.Signal, onSignal func()) {
	select {
	case <-sigChan:
		onSignal()
	case <-ctx.Done():
	}
}

// commandContext returns the context installed by Execute, or a
// background context when a command runs on its own.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine details to stderr")
}
