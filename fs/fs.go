// Package fs defines the filesystem abstraction used to read the local site tree.
//
// The scanner walks and hashes files through Filesystem and the executor reopens
// them for upload, so tests can substitute an in-memory tree (see fs/billy).
package fs

import (
	"os"
	"path/filepath"
)

// Filesystem is the subset of filesystem operations sitesync needs.
type Filesystem interface {
	// Open opens the named file for reading.
	Open(name string) (File, error)

	// Stat returns file info for the named path, following symbolic links.
	Stat(name string) (os.FileInfo, error)

	// Lstat returns file info for the named path without following a final
	// symbolic link.
	Lstat(name string) (os.FileInfo, error)

	// Readlink returns the target of the named symbolic link.
	Readlink(name string) (string, error)

	// Walk walks the tree rooted at root, calling walkFn for each file or
	// directory, including root. Returning filepath.SkipDir skips a directory.
	// Symbolic links are reported with their Lstat info and are not followed.
	Walk(root string, walkFn filepath.WalkFunc) error

	// ReadFile reads the whole named file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(filename string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(path string, perm os.FileMode) error
}

// GetAbs returns the absolute form of path relative to the working directory.
func GetAbs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}
