package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/Picocrypt/zxcvbn-go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ooxcrypt/internal/util"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// weakScore is the zxcvbn score below which encrypt warns.
const weakScore = 3

// generatedLength is the length of --generate passwords.
const generatedLength = 24

// isTerminal returns true if stdin is a terminal (not piped/redirected).
func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readLine reads one line without its terminator.
func readLine(r io.Reader) (string, error) {
	pw, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && pw != "") {
		return "", err
	}
	pw = strings.TrimSuffix(pw, "\n")
	return strings.TrimSuffix(pw, "\r"), nil
}

// readPasswordSecure reads a password from stdin without echo.
// Falls back to a plain line read if stdin is not a terminal.
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		pw, err := readLine(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return pw, nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// ReadPasswordInteractive prompts for password interactively.
// If confirm is true, asks for confirmation (for encryption).
// An empty password is returned as is.
func ReadPasswordInteractive(confirm bool) (string, error) {
	password, err := readPasswordSecure("Password: ")
	if err != nil {
		return "", err
	}

	if confirm {
		again, err := readPasswordSecure("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != again {
			return "", ErrPasswordMismatch
		}
	}
	return password, nil
}

// ReadPasswordFromStdin reads password from stdin (for piped input with -P flag).
func ReadPasswordFromStdin() (string, error) {
	pw, err := readLine(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return pw, nil
}

// passwordSource resolves a password from the -p and -P flags, falling
// back to an interactive prompt. An explicit -p "" is an empty password.
type passwordSource struct {
	flag      string
	flagSet   bool
	fromStdin bool
}

func newPasswordSource(cmd *cobra.Command, flag string, fromStdin bool) passwordSource {
	return passwordSource{
		flag:      flag,
		flagSet:   cmd.Flags().Changed("password"),
		fromStdin: fromStdin,
	}
}

func (s passwordSource) resolve(confirm bool) (string, error) {
	switch {
	case s.fromStdin:
		return ReadPasswordFromStdin()
	case s.flagSet || s.flag != "":
		return s.flag, nil
	default:
		pw, err := ReadPasswordInteractive(confirm)
		if err != nil {
			return "", fmt.Errorf("password input: %w", err)
		}
		return pw, nil
	}
}

// GeneratePassword returns a random alphanumeric password.
func GeneratePassword() (string, error) {
	return util.GenPassword(generatedLength, util.Alphanumeric)
}

// PasswordStrength returns the zxcvbn score (0-4) of password.
func PasswordStrength(password string) int {
	return zxcvbn.PasswordStrength(password, nil).Score
}

// IsWeakPassword reports whether encrypt should warn about password.
func IsWeakPassword(password string) bool {
	return PasswordStrength(password) < weakScore
}
