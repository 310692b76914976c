package corpus

import (
	"io/fs"

	"github.com/dustin/go-humanize"
)

// documentPatterns matches the compressed per-document files a corpus tree
// holds. Reporting counts only these, not incidental files.
var documentPatterns = []string{"*.xml.gz"}

// TreeStats holds the document count and total on-disk size of one
// language subtree.
type TreeStats struct {
	Files int
	Bytes int64
}

// HumanBytes renders the total size in human-readable units.
func (s TreeStats) HumanBytes() string {
	return humanize.Bytes(uint64(s.Bytes))
}

// Reporter computes before/after statistics for corpus subtrees.
// Reporting is purely observational: it exists so an operator can
// sanity-check that the filter removed a plausible fraction of documents.
type Reporter struct {
	fsmgr FilesystemManager
}

func NewReporter(fsmgr FilesystemManager) *Reporter {
	return &Reporter{fsmgr: fsmgr}
}

// Measure walks root and sums the size and count of document files.
func (r *Reporter) Measure(root string) (TreeStats, error) {
	var stats TreeStats
	err := r.fsmgr.WalkFiles(root, documentPatterns, func(path string, info fs.FileInfo) error {
		stats.Files++
		stats.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return TreeStats{}, err
	}
	return stats, nil
}
