package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Copier copies manifest-referenced documents from the corpus xml/ root into
// a staging root, preserving relative paths. The source tree is read-only.
type Copier struct {
	fsmgr  FilesystemManager
	logger Logger
}

func NewCopier(fsmgr FilesystemManager, logger Logger) *Copier {
	return &Copier{fsmgr: fsmgr, logger: logger}
}

// CopyReferenced copies each relative path from srcRoot to the identical
// location under stagingRoot. Duplicate paths are coalesced to a single copy.
// A path missing from srcRoot fails the whole pass with a
// MissingSourceFileError; nothing under srcRoot is ever modified, so an
// aborted pass leaves the original tree untouched.
// Returns the number of distinct files copied.
func (c *Copier) CopyReferenced(srcRoot, stagingRoot string, paths []string) (int, error) {
	seen := make(map[string]struct{}, len(paths))
	copied := 0

	for _, rel := range paths {
		rel = filepath.Clean(rel)
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}

		src := filepath.Join(srcRoot, rel)
		if _, err := c.fsmgr.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return copied, &MissingSourceFileError{Path: rel}
			}
			return copied, fmt.Errorf("stat %s: %w", src, err)
		}

		dst := filepath.Join(stagingRoot, rel)
		if err := c.fsmgr.CopyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copying %s: %w", rel, err)
		}

		c.logger.Debug("document staged", "path", rel)
		copied++
	}

	return copied, nil
}
