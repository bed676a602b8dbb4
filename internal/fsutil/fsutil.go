// Package fsutil provides the directory listing and creation helpers the
// dispatcher uses to walk input trees and build the output tree.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entries splits the entries of dir into regular files and subdirectories,
// each sorted by name. Symlinks are classified by what they point to.
func Entries(dir string) (files, dirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				// Dangling link: treat as a file and let the consumer fail on it
				files = append(files, e.Name())
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}

	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs, nil
}

// FilesWithSuffix returns the names of non-directory entries of dir that end
// with suffix. Everything else is ignored.
func FilesWithSuffix(dir, suffix string) ([]string, error) {
	if suffix == "" {
		panic("suffix must not be empty")
	}

	files, _, err := Entries(dir)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, name := range files {
		if strings.HasSuffix(name, suffix) {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// EnsureDir creates path and any missing parents. A directory that already
// exists is not an error; anything else (permissions, a file in the way)
// is returned.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// RequireDir returns an error unless path exists and is a directory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
