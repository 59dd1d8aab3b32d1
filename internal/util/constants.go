// Package util provides common utilities and constants for ooxcrypt.
//
// This package contains:
//   - Size constants (KiB, MiB, GiB, TiB) for byte calculations
//   - Pooled, wiped-on-return buffers for payload batches
//   - Progress, speed and size formatting (Statify, Timeify, Sizeify)
//   - Cryptographically secure password generation
//
// All utilities are stateless and thread-safe.
package util

// Size constants for byte calculations
const (
	KiB = 1 << 10 // 1024
	MiB = 1 << 20 // 1,048,576
	GiB = 1 << 30 // 1,073,741,824
	TiB = 1 << 40 // 1,099,511,627,776
)
