// Package extract unpacks downloaded corpus archives (.tar.gz) into a
// document tree.
package extract

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"subprep/internal/corpus"
)

// archivePatterns matches the downloaded corpus snapshots.
var archivePatterns = []string{"*.tar.gz", "*.tgz"}

// Extractor walks a source directory for corpus archives and unpacks each
// one into an output directory.
type Extractor struct {
	fsmgr  corpus.FilesystemManager
	logger corpus.Logger
}

func NewExtractor(fsmgr corpus.FilesystemManager, logger corpus.Logger) *Extractor {
	return &Extractor{fsmgr: fsmgr, logger: logger}
}

// ExtractAll unpacks every archive found under srcDir into outDir.
// Returns the number of archives extracted.
func (e *Extractor) ExtractAll(srcDir, outDir string) (int, error) {
	count := 0
	err := e.fsmgr.WalkFiles(srcDir, archivePatterns, func(path string, _ fs.FileInfo) error {
		e.logger.Info("extracting archive", "archive", path)
		if err := e.ExtractArchive(path, outDir); err != nil {
			return fmt.Errorf("extracting %s: %w", path, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

// ExtractArchive unpacks a single .tar.gz archive into outDir. Member paths
// that escape outDir (absolute, or containing "..") fail the extraction.
func (e *Extractor) ExtractArchive(path, outDir string) error {
	f, err := e.fsmgr.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}

		name := filepath.Clean(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive member escapes output directory: %s", hdr.Name)
		}
		dst := filepath.Join(outDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := e.fsmgr.MkdirAll(dst); err != nil {
				return fmt.Errorf("creating directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeMember(dst, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			e.logger.Debug("member extracted", "path", name)
		default:
			// Corpus archives hold plain files and directories; anything
			// else (symlinks, devices) is skipped.
			e.logger.Warn("skipping unsupported archive member", "path", name, "type", hdr.Typeflag)
		}
	}
}

func writeMember(dst string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
