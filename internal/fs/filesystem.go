package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"subprep/internal/corpus"
)

// OSFilesystemManager is the real filesystem implementation of
// corpus.FilesystemManager, built on the os package.
type OSFilesystemManager struct{}

func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// CopyFile copies a regular file from src to dst, creating dst's parent
// directories as needed. The copy inherits the source file's permission bits.
func (m *OSFilesystemManager) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying content: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing destination: %w", err)
	}

	return nil
}

// WalkFiles calls fn for every regular file under root whose base name
// matches one of the glob patterns. An empty pattern list matches every file.
func (m *OSFilesystemManager) WalkFiles(root string, patterns []string, fn func(path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !matchesAny(d.Name(), patterns) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		return fn(p, info)
	})
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		// Match only errors on malformed patterns, which are constants here.
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func (m *OSFilesystemManager) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (m *OSFilesystemManager) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (m *OSFilesystemManager) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Compile-time check that OSFilesystemManager implements corpus.FilesystemManager
var _ corpus.FilesystemManager = (*OSFilesystemManager)(nil)
