package blobstore

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/seqlab/modisco/internal/fs"
	"github.com/seqlab/modisco/resource"
)

// Pack writes the directory archive rooted at dir to w as a gzip-compressed
// tar stream. Entries are emitted in sorted order so packing is
// deterministic for a given tree.
func Pack(w io.Writer, fsys fs.FileSystem, dir string) error {
	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)

	var walk func(abs, rel string) error
	walk = func(abs, rel string) error {
		entries, err := fsys.ReadDir(abs)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			name := e.Name()
			childAbs := filepath.Join(abs, name)
			childRel := name
			if rel != "" {
				childRel = rel + "/" + name
			}

			if e.IsDir() {
				hdr := &tar.Header{
					Typeflag: tar.TypeDir,
					Name:     childRel + "/",
					Mode:     0o755,
				}
				if err := tw.WriteHeader(hdr); err != nil {
					return err
				}
				if err := walk(childAbs, childRel); err != nil {
					return err
				}
				continue
			}

			info, err := fsys.Stat(childAbs)
			if err != nil {
				return err
			}
			hdr := &tar.Header{
				Typeflag: tar.TypeReg,
				Name:     childRel,
				Mode:     0o644,
				Size:     info.Size(),
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			f, err := fsys.OpenFile(childAbs, os.O_RDONLY, 0)
			if err != nil {
				return err
			}
			if _, err := io.Copy(tw, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(dir, ""); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

// Unpack extracts a gzip-compressed tar stream produced by Pack into dir.
// Entries escaping dir are rejected.
func Unpack(r io.Reader, fsys fs.FileSystem, dir string) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		rel := filepath.Clean(filepath.FromSlash(hdr.Name))
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			return fmt.Errorf("blobstore: tar entry %q escapes destination", hdr.Name)
		}
		target := filepath.Join(dir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fsys.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Sync(); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("blobstore: unsupported tar entry type %d for %q", hdr.Typeflag, hdr.Name)
		}
	}
	return nil
}

// Upload packs the directory archive at dir and stores it under name.
// A nil controller uploads unthrottled.
func Upload(ctx context.Context, store BlobStore, name, dir string, rc *resource.Controller) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(Pack(resource.NewRateLimitedWriter(pw, rc, ctx), fs.Default, dir))
	}()

	if err := store.Put(ctx, name, pr); err != nil {
		pr.CloseWithError(err)
		return err
	}
	return pr.Close()
}

// Download fetches the named blob and unpacks it into dir.
// A nil controller downloads unthrottled.
func Download(ctx context.Context, store BlobStore, name, dir string, rc *resource.Controller) error {
	body, err := store.Get(ctx, name)
	if err != nil {
		return err
	}
	defer body.Close()

	return Unpack(resource.NewRateLimitedReader(body, rc, ctx), fs.Default, dir)
}
