// fsutil/directory.go
package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PathExists reports whether anything (file, directory, symlink target) exists at path
func PathExists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// DirExists checks if a directory exists
func DirExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CreateDir creates a directory tree if it doesn't exist
func CreateDir(fs afero.Fs, path string, perm os.FileMode) error {
	info, err := fs.Stat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	return fs.MkdirAll(path, perm)
}

// CreateDirIfNotExists creates a directory with standard permissions if it doesn't exist
func CreateDirIfNotExists(fs afero.Fs, path string) error {
	return CreateDir(fs, path, 0755)
}

// DeleteDirRecursive removes a directory and all its contents
func DeleteDirRecursive(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil || !info.IsDir() {
		return nil // Directory doesn't exist, nothing to do
	}
	return fs.RemoveAll(path)
}

// CleanPath strips trailing separators so "deps/" and "deps" name the same directory.
// The filesystem root is returned unchanged.
func CleanPath(path string) string {
	trimmed := strings.TrimRight(path, string(filepath.Separator))
	if trimmed == "" {
		return path
	}
	return filepath.Clean(trimmed)
}
