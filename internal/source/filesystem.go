package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Filesystem reads documents from a local directory tree.
type Filesystem struct {
	root string
}

// NewFilesystem creates a source rooted at the given directory.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: root}
}

// List walks the tree and returns all regular files as root-relative paths.
func (f *Filesystem) List(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", f.root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Fetch reads the document at the given root-relative path.
func (f *Filesystem) Fetch(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &Document{Path: path, Data: data}, nil
}
