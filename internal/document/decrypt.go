package document

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"ooxcrypt/internal/container"
	"ooxcrypt/internal/errors"
	"ooxcrypt/internal/log"
	"ooxcrypt/internal/util"
)

// incompleteSuffix marks output that has not passed the integrity check.
const incompleteSuffix = ".incomplete"

// Decrypt writes the plaintext of the container req.Input to req.Output.
//
// A wrong password returns errors.ErrWrongPassword and creates no output.
// A failed integrity check removes the output and returns
// errors.ErrIntegrity unless req.Force is set.
func Decrypt(parent context.Context, req *DecryptRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !req.Overwrite {
		if _, err := os.Stat(req.Output); err == nil {
			return errors.NewFileError("create", req.Output, errors.ErrFileExists)
		}
	}

	ctx := newContext(req.Input, req.Output, req.Reporter, req.Concurrency)
	defer ctx.Close()

	in, err := container.Open(req.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := decryptReadInfo(ctx, in); err != nil {
		return err
	}
	if err := decryptUnlock(ctx, req.Password); err != nil {
		return err
	}

	tmp := req.Output + incompleteSuffix
	if err := decryptPayload(ctx.bind(parent, in.PackageSize()), ctx, in, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := decryptFinalize(ctx, req, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func decryptReadInfo(ctx *OperationContext, in *container.Reader) error {
	ctx.SetStatus("Reading values...")
	rc, err := in.Info()
	if err != nil {
		return errors.Wrap(err, "open "+container.InfoStream)
	}
	defer rc.Close()
	return errors.Wrap(ctx.Engine.ReadEncryptionInfo(rc), ctx.InputFile)
}

func decryptUnlock(ctx *OperationContext, password string) error {
	ctx.SetStatus("Deriving key...")
	if err := ctx.Engine.GenerateEncryptionKey(password); err != nil {
		if errors.IsWrongPassword(err) {
			ctx.logger.Warn("password rejected", log.String("input", ctx.InputFile))
		}
		return err
	}
	return nil
}

// streamPayload decrypts the package stream into w.
func streamPayload(c context.Context, ctx *OperationContext, in *container.Reader, w io.Writer) error {
	rc, err := in.Package()
	if err != nil {
		return errors.Wrap(err, "open "+container.PackageStream)
	}
	defer rc.Close()
	return ctx.Engine.Decrypt(c, bufio.NewReaderSize(rc, util.MiB), w)
}

func decryptPayload(c context.Context, ctx *OperationContext, in *container.Reader, path string) error {
	ctx.SetStatus("Decrypting...")
	fout, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.NewFileError("create", path, err)
	}
	bw := bufio.NewWriterSize(fout, util.MiB)
	if err := streamPayload(c, ctx, in, bw); err != nil {
		_ = fout.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = fout.Close()
		return errors.NewFileError("write", path, err)
	}
	if err := fout.Close(); err != nil {
		return errors.NewFileError("close", path, err)
	}
	return nil
}

func decryptFinalize(ctx *OperationContext, req *DecryptRequest, tmp string) error {
	ctx.SetStatus("Comparing values...")
	if err := ctx.Engine.CheckDataIntegrity(); err != nil {
		if !req.Force {
			return err
		}
		ctx.logger.Warn("integrity check failed, keeping output",
			log.String("output", req.Output))
		if req.Kept != nil {
			*req.Kept = true
		}
	}
	if err := os.Rename(tmp, req.Output); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	ctx.logger.Info("decrypted document",
		log.String("output", req.Output),
		log.String("preset", ctx.Engine.Preset().String()))
	return nil
}

// Verify checks the password and the integrity of the container at path
// without writing any plaintext.
func Verify(parent context.Context, path, password string, reporter ProgressReporter) error {
	ctx := newContext(path, "", reporter, 0)
	defer ctx.Close()

	in, err := container.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := decryptReadInfo(ctx, in); err != nil {
		return err
	}
	if err := decryptUnlock(ctx, password); err != nil {
		return err
	}
	ctx.SetStatus("Verifying...")
	if err := streamPayload(ctx.bind(parent, in.PackageSize()), ctx, in, io.Discard); err != nil {
		return err
	}
	return ctx.Engine.CheckDataIntegrity()
}
