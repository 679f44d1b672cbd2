package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/seqlab/modisco/internal/fs"
)

// Create stages a new writable directory archive at path. Content is written
// to a temporary sibling and renamed over path on Close, so readers never
// observe a half-written archive. The caller owns path for the duration.
func Create(path string, opts ...Option) (*Archive, error) {
	return CreateFS(fs.Default, path, opts...)
}

// CreateFS is Create with an injected filesystem (fault injection in tests).
func CreateFS(fsys fs.FileSystem, path string, opts ...Option) (*Archive, error) {
	tmp := path + ".tmp"
	if err := fsys.RemoveAll(tmp); err != nil {
		return nil, fmt.Errorf("archive: clear staging dir: %w", err)
	}
	if err := fsys.MkdirAll(tmp, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create staging dir: %w", err)
	}
	return &Archive{
		Group: &Group{n: &dirNode{fsys: fsys, path: tmp}, opts: applyOptions(opts)},
		publish: func() error {
			if err := fsys.RemoveAll(path); err != nil {
				return fmt.Errorf("archive: replace %s: %w", path, err)
			}
			if err := fsys.Rename(tmp, path); err != nil {
				return fmt.Errorf("archive: publish %s: %w", path, err)
			}
			return nil
		},
		discard: func() error {
			return fsys.RemoveAll(tmp)
		},
	}, nil
}

// Open opens an existing directory archive read-only.
func Open(path string, opts ...Option) (*Archive, error) {
	return OpenFS(fs.Default, path, opts...)
}

// OpenFS is Open with an injected filesystem.
func OpenFS(fsys fs.FileSystem, path string, opts ...Option) (*Archive, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive: %s: %w", path, ErrNotExist)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive: %s is not a directory", path)
	}
	return &Archive{
		Group: &Group{n: &dirNode{fsys: fsys, path: path, readonly: true}, opts: applyOptions(opts)},
	}, nil
}

// dirNode maps groups to directories and datasets to files.
type dirNode struct {
	fsys     fs.FileSystem
	path     string
	readonly bool
}

func (d *dirNode) group(name string, create bool) (node, error) {
	sub := filepath.Join(d.path, name)
	info, err := d.fsys.Stat(sub)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("archive: %q is a dataset, not a group: %w", name, ErrNotExist)
		}
	case os.IsNotExist(err):
		if !create {
			return nil, ErrNotExist
		}
		if d.readonly {
			return nil, ErrReadOnly
		}
		if err := d.fsys.MkdirAll(sub, 0o755); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &dirNode{fsys: d.fsys, path: sub, readonly: d.readonly}, nil
}

func (d *dirNode) hasGroup(name string) bool {
	info, err := d.fsys.Stat(filepath.Join(d.path, name))
	return err == nil && info.IsDir()
}

func (d *dirNode) groups() ([]string, error) {
	entries, err := d.fsys.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d *dirNode) put(name string, data []byte) error {
	if d.readonly {
		return ErrReadOnly
	}
	return fs.WriteFile(d.fsys, filepath.Join(d.path, name), data, 0o644)
}

func (d *dirNode) get(name string) ([]byte, error) {
	data, err := fs.ReadFile(d.fsys, filepath.Join(d.path, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

func (d *dirNode) hasDataset(name string) bool {
	info, err := d.fsys.Stat(filepath.Join(d.path, name))
	return err == nil && !info.IsDir()
}

func (d *dirNode) datasets() ([]string, error) {
	entries, err := d.fsys.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
