// utils/files.go
package utils

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(fs afero.Fs, dir string) error {
	return fs.MkdirAll(dir, os.ModePerm)
}

// WriteFile saves data at path, creating parent directories.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// Exists reports whether path exists. Stat errors other than
// "not exist" are returned.
func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}

// Remove deletes path; a missing file is not an error.
func Remove(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
