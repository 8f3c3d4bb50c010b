package testutil

import (
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
)

// FailingFS wraps a filesystem and fails access to Path. OpenErr is returned
// from Open; otherwise ReadErr is returned from every Read on the opened file.
type FailingFS struct {
	fs.Filesystem
	Path    string
	OpenErr error
	ReadErr error
}

// Open implements fs.Filesystem.
func (f *FailingFS) Open(name string) (fs.File, error) {
	if name != f.Path {
		return f.Filesystem.Open(name)
	}
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	file, err := f.Filesystem.Open(name)
	if err != nil {
		return nil, err
	}
	return &failingFile{File: file, err: f.ReadErr}, nil
}

type failingFile struct {
	fs.File
	err error
}

func (f *failingFile) Read(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.File.Read(p)
}
