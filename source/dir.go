package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir serves files from a local directory, typically doc/_data.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	if root == "" {
		root = "doc/_data"
	}
	return &Dir{root: root}
}

func (d *Dir) path(name string) (string, error) {
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(name))
	if strings.Trim(clean, string(filepath.Separator)) == "" {
		return "", ErrNotFound
	}
	return filepath.Join(d.root, clean), nil
}

func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (d *Dir) List(ctx context.Context, prefix string) ([]string, error) {
	names := []string{}
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
