// Package fsys is the filesystem seam of the solution compiler: file access
// for project and configuration readers, and glob enumeration for the
// builder.
package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// FileSystem provides an abstraction over file operations for testability
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error

	Stat(path string) (fs.FileInfo, error)
	Exists(path string) bool

	WalkDir(root string, fn fs.WalkDirFunc) error

	// CaseSensitive reports whether paths differing only by case name
	// different files
	CaseSensitive() bool
}

// OSFileSystem implements FileSystem using real OS operations
type OSFileSystem struct {
	caseSensitive bool
}

// NewOSFileSystem creates a FileSystem backed by the OS. Paths are case
// sensitive except on Windows and macOS.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{caseSensitive: runtime.GOOS != "windows" && runtime.GOOS != "darwin"}
}

func (osfs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osfs *OSFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (osfs *OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osfs *OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (osfs *OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osfs *OSFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

func (osfs *OSFileSystem) CaseSensitive() bool {
	return osfs.caseSensitive
}
