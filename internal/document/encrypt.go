package document

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"ooxcrypt/internal/container"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/log"
	"ooxcrypt/internal/util"
)

// Encrypt writes req.Input into a new container at req.Output. A partial
// output is removed on failure.
func Encrypt(parent context.Context, req *EncryptRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx := newContext(req.Input, req.Output, req.Reporter, req.Concurrency)
	defer ctx.Close()

	if err := encryptSetup(ctx, req); err != nil {
		return err
	}

	fin, err := os.Open(req.Input)
	if err != nil {
		return errors.NewFileError("open", req.Input, err)
	}
	defer fin.Close()
	stat, err := fin.Stat()
	if err != nil {
		return errors.NewFileError("stat", req.Input, err)
	}

	out, err := container.Create(req.Output, req.Overwrite)
	if err != nil {
		return err
	}
	if err := encryptPayload(ctx.bind(parent, stat.Size()), ctx, fin, out); err != nil {
		out.Abort()
		return err
	}
	if err := encryptFinalize(ctx, out); err != nil {
		out.Abort()
		return err
	}

	ctx.logger.Info("encrypted document",
		log.String("output", req.Output),
		log.String("preset", ctx.Engine.Preset().String()),
		log.Int64("bytes", stat.Size()))
	return nil
}

func encryptSetup(ctx *OperationContext, req *EncryptRequest) error {
	ctx.SetStatus("Deriving key...")
	if err := ctx.Engine.SetPreset(req.Preset); err != nil {
		return err
	}
	if req.SpinCount != 0 {
		if err := ctx.Engine.SetSpinCount(req.SpinCount); err != nil {
			return err
		}
	}
	return ctx.Engine.SetupEncryption(req.Password)
}

func encryptPayload(c context.Context, ctx *OperationContext, fin *os.File, out *container.Writer) error {
	ctx.SetStatus(fmt.Sprintf("Encrypting %s...", util.Sizeify(ctx.Total)))
	pw, err := out.Package()
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(pw, util.MiB)
	if err := ctx.Engine.Encrypt(c, bufio.NewReaderSize(fin, util.MiB), bw, ctx.Total); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write encrypted package: %w", err)
	}
	return nil
}

func encryptFinalize(ctx *OperationContext, out *container.Writer) error {
	ctx.SetStatus("Writing encryption info...")
	iw, err := out.Info()
	if err != nil {
		return err
	}
	if err := ctx.Engine.WriteEncryptionInfo(iw); err != nil {
		return err
	}
	return out.Close()
}
