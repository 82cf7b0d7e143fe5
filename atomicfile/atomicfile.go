// Package atomicfile writes files atomically: content goes to a temporary
// file in the target directory and is renamed into place on Close. A partial
// write never leaves a half-finished output file behind.
package atomicfile

import (
	"os"
	"path/filepath"
)

// File is a write-only file that appears at its final path on Close.
type File struct {
	*os.File
	path string
}

// New creates a temporary file next to path.
func New(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &File{File: f, path: path}, nil
}

// Close flushes the temporary file and moves it to the final path.
func (f *File) Close() error {
	if err := f.File.Sync(); err != nil {
		f.Abort()
		return err
	}
	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return err
	}
	return os.Rename(f.File.Name(), f.path)
}

// Abort discards the temporary file.
func (f *File) Abort() {
	f.File.Close()
	os.Remove(f.File.Name())
}
