package ports

import (
	"io"
	"os"
)

// WritableFile is the subset of *os.File the archiver writes through.
type WritableFile interface {
	io.Writer
	io.Closer
	Sync() error
}

// FileSystem abstracts the filesystem calls made on the rotation and
// archival paths so failures can be injected.
type FileSystem interface {
	MkdirAll(dirPath string, permission os.FileMode) error
	Glob(pattern string) ([]string, error)

	OpenAppend(filePath string, permission os.FileMode) (*os.File, error)
	Open(filePath string) (io.ReadCloser, error)
	Create(filePath string) (WritableFile, error)
	Stat(filePath string) (os.FileInfo, error)
	Rename(oldPath, newPath string) error
	Remove(filePath string) error
	Exists(filePath string) (bool, error)
}
