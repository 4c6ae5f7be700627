// Package open creates files which only the current user can read.
//
// Profile stores hold API keys, so they must not be readable by others.
package open

import (
	"os"
	"path/filepath"
)

const (
	FileMode = os.FileMode(0600)
	DirMode  = os.FileMode(0700)
)

// NewSafeFile creates a new empty file which is accessible only by the current user.
//
// Missing parent directories are created with DirMode.
// If the file already exists, it is truncated.
func NewSafeFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, err
	}
	if err := restrict(path); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Restrict enforces FileMode on an existing file, which may have loose permissions.
func Restrict(path string) error {
	return restrict(path)
}
