// Package document encrypts and decrypts whole files into and out of
// encrypted document containers.
//
// Encryption pipeline:
//  1. Set up: pick the preset and spin count, draw salts and the document key
//  2. Encrypt payload: stream the plaintext into EncryptedPackage, HMAC on the way
//  3. Finalize: write EncryptionInfo with the wrapped HMAC, close the archive
//
// Decryption pipeline:
//  1. Read info: parse EncryptionInfo, reject unsupported parameters
//  2. Unlock: check the password verifier, unwrap the document key and HMAC
//  3. Decrypt payload: stream EncryptedPackage into a temporary output
//  4. Finalize: compare HMACs, rename or remove the output
//
// A wrong password is detected before any output is created.
//
// ⚠️ SECURITY: Always call OperationContext.Close() when done to zero key material.
package document

import (
	"context"
	"time"

	"ooxcrypt/internal/agile"
	"ooxcrypt/internal/log"
	"ooxcrypt/internal/util"
)

// ProgressReporter receives status and progress updates during long
// operations. Implementations must be thread-safe.
type ProgressReporter interface {
	SetStatus(text string)                     // e.g. "Deriving key..."
	SetProgress(fraction float32, info string) // 0.0-1.0 and a rendered util.Stats
	IsCancelled() bool                         // polled between payload batches
}

// EncryptRequest describes one file encryption.
type EncryptRequest struct {
	Input    string // plaintext file
	Output   string // container to create
	Password string

	Preset agile.Preset
	// SpinCount overrides the preset's iteration count when non-zero.
	SpinCount uint32

	Overwrite   bool // replace an existing Output
	Concurrency int  // segment workers; <= 0 means the engine default

	Reporter ProgressReporter // may be nil
}

// DecryptRequest describes one file decryption.
type DecryptRequest struct {
	Input    string // container to read
	Output   string // plaintext file to create
	Password string

	// Force keeps the output when the integrity check fails.
	Force     bool
	Overwrite bool
	// Kept, if non-nil, is set when Force kept a damaged output.
	Kept *bool

	Concurrency int
	Reporter    ProgressReporter
}

// OperationContext holds the state of one Encrypt or Decrypt call.
type OperationContext struct {
	InputFile  string
	OutputFile string

	Engine *agile.Engine

	Total    int64
	start    time.Time
	Reporter ProgressReporter

	cancel context.CancelFunc
	logger log.Logger
}

func newContext(input, output string, reporter ProgressReporter, concurrency int) *OperationContext {
	e := agile.NewEngine()
	e.SetConcurrency(concurrency)
	return &OperationContext{
		InputFile:  input,
		OutputFile: output,
		Engine:     e,
		Reporter:   reporter,
		logger:     log.GetLogger().WithFields(log.String("component", "document")),
	}
}

// bind returns a context cancelled when parent is done or the reporter
// asks to cancel, and wires engine progress to the reporter.
func (ctx *OperationContext) bind(parent context.Context, total int64) context.Context {
	c, cancel := context.WithCancel(parent)
	ctx.cancel = cancel
	ctx.Total = total
	ctx.start = time.Now()
	ctx.Engine.SetProgress(func(done, total int64) {
		ctx.UpdateProgress(done, total)
		if ctx.IsCancelled() {
			cancel()
		}
	})
	return c
}

// UpdateProgress forwards progress to the reporter if present.
func (ctx *OperationContext) UpdateProgress(done, total int64) {
	if ctx.Reporter == nil {
		return
	}
	s := util.Statify(done, total, ctx.start)
	ctx.Reporter.SetProgress(s.Fraction, s.String())
}

// SetStatus forwards a status message to the reporter if present.
func (ctx *OperationContext) SetStatus(status string) {
	if ctx.Reporter != nil {
		ctx.Reporter.SetStatus(status)
	}
}

// IsCancelled reports whether the reporter asked to cancel.
func (ctx *OperationContext) IsCancelled() bool {
	return ctx.Reporter != nil && ctx.Reporter.IsCancelled()
}

// Close zeroes the key material held by the engine.
//
// ⚠️ SECURITY: Call via defer right after creating the context.
func (ctx *OperationContext) Close() {
	if ctx == nil {
		return
	}
	if ctx.cancel != nil {
		ctx.cancel()
		ctx.cancel = nil
	}
	ctx.Engine.Close()
}
