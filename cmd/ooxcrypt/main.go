// ooxcrypt v0.3.0
// Copyright (c) ooxcrypt developers
// Released under GPL-3.0-only
//
// ooxcrypt encrypts and decrypts password-protected Office Open XML
// documents using the Agile Encryption scheme:
//   - Iterated, salted SHA-1/SHA-384/SHA-512 password hashing
//   - AES-CBC per 4096-byte segment with a per-segment IV
//   - HMAC over the encrypted package
//
// Commands: encrypt, decrypt, verify, info, hash-password.

package main

import (
	"os"

	"ooxcrypt/internal/cli"
)

// version is the application version reported by --version.
// Format: "vMAJOR.MINOR.PATCH" (e.g., "v0.3.0")
const version = "v0.3.0"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
