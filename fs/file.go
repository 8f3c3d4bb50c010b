package fs

import "io/fs"

// File represents an open, readable file handle.
type File interface {
	Close() error
	Name() string
	Read(p []byte) (n int, err error)
	Stat() (fs.FileInfo, error)
}
