// Package scanner finds KOReader sidecar files in a directory tree.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// MetadataPattern matches KOReader sidecar files such as metadata.epub.lua.
const MetadataPattern = "metadata.*.lua"

// ErrNoMetadataFiles indicates the tree holds no sidecar files
var ErrNoMetadataFiles = errors.New("no metadata files found")

// SidecarFile is one sidecar found on disk.
type SidecarFile struct {
	Path    string
	ModTime time.Time
}

// FindMetadataFiles walks root and returns every sidecar file sorted by
// path.
func FindMetadataFiles(ctx context.Context, root string) ([]SidecarFile, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("input folder does not exist: %s", root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat input folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path is not a folder: %s", root)
	}

	var files []SidecarFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		matched, err := filepath.Match(MetadataPattern, d.Name())
		if err != nil || !matched {
			return err
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, SidecarFile{Path: path, ModTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMetadataFiles, root)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// ModifiedSince keeps the files changed after t.
func ModifiedSince(files []SidecarFile, t time.Time) []SidecarFile {
	var changed []SidecarFile
	for _, f := range files {
		if f.ModTime.After(t) {
			changed = append(changed, f)
		}
	}
	return changed
}

// Paths returns the file paths in order.
func Paths(files []SidecarFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}
