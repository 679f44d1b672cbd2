// Package modisco persists and reconstructs the hierarchical output of a
// motif-discovery analysis: discovered patterns, their supporting seqlets,
// merge history and sub-clustering structure.
//
// Save and Load work with the current nested archive layout; Upgrade and
// Downgrade translate between it and the legacy flat layout. Each call owns
// its archive handle for the duration and releases it on every exit path; no
// state is retained between calls. Concurrent writers to one archive path are
// not supported. Writable archives stage into a temporary directory and
// publish atomically on success, so readers of the destination path never see
// partial output.
package modisco

import (
	"context"
	"errors"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/model"
	"github.com/seqlab/modisco/schema"
	"github.com/seqlab/modisco/store"
)

// Save writes a result to a directory archive at path in the current layout.
// The destination is replaced atomically on success and left untouched on
// failure.
func Save(ctx context.Context, result *model.TopLevelResult, path string, opts ...Option) error {
	o := applyOptions(opts)

	err := func() error {
		a, err := archive.Create(path, o.archiveOptions()...)
		if err != nil {
			return err
		}
		defer a.Discard()

		if err := store.SaveResult(a.Group, result); err != nil {
			return err
		}
		return a.Close()
	}()

	err = translateError(err)
	o.Logger.LogSave(ctx, path, len(result.Metaclusters), err)
	return err
}

// Load reads a current-layout directory archive back into a result. A failed
// load never returns a partially populated result.
func Load(ctx context.Context, path string, opts ...Option) (*model.TopLevelResult, error) {
	o := applyOptions(opts)

	result, err := func() (*model.TopLevelResult, error) {
		a, err := archive.Open(path)
		if err != nil {
			return nil, err
		}
		defer a.Close()

		return store.LoadResult(a.Group)
	}()

	err = translateError(err)
	n := 0
	if result != nil {
		n = len(result.Metaclusters)
	}
	o.Logger.LogLoad(ctx, path, n, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Upgrade converts a legacy flat archive at src into a current-layout archive
// at dst, synthesizing the structure the legacy layout cannot express.
func Upgrade(ctx context.Context, src, dst string, opts ...Option) error {
	o := applyOptions(opts)

	err := func() error {
		in, err := archive.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := archive.Create(dst, o.archiveOptions()...)
		if err != nil {
			return err
		}
		defer out.Discard()

		if err := schema.Upgrade(in.Group, out.Group); err != nil {
			return err
		}
		return out.Close()
	}()

	err = translateError(err)
	o.Logger.LogConvert(ctx, "upgrade", src, dst, nil, err)
	return err
}

// Downgrade converts a current-layout archive at src into a legacy flat
// archive at dst. The conversion is explicitly lossy: dst is fully written
// even when the returned error wraps ErrLossyConversion, which reports the
// dropped fields.
func Downgrade(ctx context.Context, src, dst string, opts ...Option) error {
	o := applyOptions(opts)

	err := func() error {
		in, err := archive.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := archive.Create(dst, o.archiveOptions()...)
		if err != nil {
			return err
		}
		defer out.Discard()

		convErr := schema.Downgrade(in.Group, out.Group)
		if convErr != nil && !errors.Is(convErr, schema.ErrLossyConversion) {
			return convErr
		}
		if err := out.Close(); err != nil {
			return err
		}
		return convErr
	}()

	err = translateError(err)
	var lossy *schema.LossyConversionError
	var dropped []string
	if errors.As(err, &lossy) {
		dropped = lossy.Dropped
	}
	var logErr error
	if err != nil && dropped == nil {
		logErr = err
	}
	o.Logger.LogConvert(ctx, "downgrade", src, dst, dropped, logErr)
	return err
}

// DetectVersion reports which layout the archive at path carries.
func DetectVersion(path string) (schema.Version, error) {
	a, err := archive.Open(path)
	if err != nil {
		return schema.VersionUnknown, translateError(err)
	}
	defer a.Close()

	v, err := schema.Detect(a.Group)
	return v, translateError(err)
}
