package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/gzlog/internal/core/ports"
)

// LocalFileSystem implements ports.FileSystem on top of the os package.
type LocalFileSystem struct{}

func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// Creates the directory and any missing parents.
func (lfs *LocalFileSystem) MkdirAll(dirPath string, permission os.FileMode) error {
	stat, err := os.Stat(dirPath)
	if err == nil {
		if !stat.IsDir() {
			return errors.New("existing path isn't a directory: " + dirPath)
		}
		return nil
	}
	return os.MkdirAll(dirPath, permission)
}

// Returns the file names matching pattern.
func (lfs *LocalFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Opens (creating if needed) a file for appending.
func (lfs *LocalFileSystem) OpenAppend(filePath string, permission os.FileMode) (*os.File, error) {
	return os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, permission)
}

// Opens a file for reading.
func (lfs *LocalFileSystem) Open(filePath string) (io.ReadCloser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Creates or truncates a file.
func (lfs *LocalFileSystem) Create(filePath string) (ports.WritableFile, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (lfs *LocalFileSystem) Stat(filePath string) (os.FileInfo, error) {
	return os.Stat(filePath)
}

// Renames a file. This is a single rename(2); the destination is replaced if
// it exists, so callers must check for collisions first.
func (lfs *LocalFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Deletes a file.
func (lfs *LocalFileSystem) Remove(filePath string) error {
	return os.Remove(filePath)
}

// Checks if a file exists or not.
func (lfs *LocalFileSystem) Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
