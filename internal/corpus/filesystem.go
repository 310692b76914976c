package corpus

import (
	"io"
	"io/fs"
)

// FilesystemManager provides the filesystem operations the filter pipeline
// needs. It abstracts file access so the pipeline can be exercised against
// throwaway trees in tests without special-casing.
type FilesystemManager interface {
	// Stat returns file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// CopyFile copies a regular file from src to dst, creating dst's parent
	// directories as needed. The source is never modified.
	CopyFile(src, dst string) error

	// WalkFiles calls fn for every regular file under root whose base name
	// matches one of the glob patterns. An empty pattern list matches
	// every file.
	WalkFiles(root string, patterns []string, fn func(path string, info fs.FileInfo) error) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Rename moves a file or directory to a new path.
	Rename(oldPath, newPath string) error

	// RemoveAll removes a path and anything under it.
	RemoveAll(path string) error
}
