package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// FilterConfig names every path the filter touches. Nothing is discovered
// from the working directory.
type FilterConfig struct {
	// CorpusRoot is the parent of the xml/ tree.
	CorpusRoot string
	// ManifestPath is the alignment manifest correlating the two subtrees.
	ManifestPath string
	// SourceLang and TargetLang name the two language subtrees under xml/.
	SourceLang string
	TargetLang string
	// KeepStagingOnError leaves a partially populated staging tree in place
	// for inspection when the run aborts before promotion.
	KeepStagingOnError bool
}

// LangReport holds before/after statistics for one language subtree.
type LangReport struct {
	Lang   string
	Before TreeStats
	After  TreeStats
}

// FilterResult summarizes a completed filter run.
type FilterResult struct {
	Entries int // manifest alignment records parsed
	Copied  int // distinct documents copied into staging
	Reports []LangReport
}

// FilterService runs the unmatched-pair filter: parse the manifest, copy
// exactly the referenced documents into a staging tree, report size/count
// deltas, then promote the staging subtrees over the originals.
//
// The pipeline is strictly sequential and the ordering is the safety
// property: every fallible read-only step happens before the first
// destructive one.
type FilterService struct {
	fsmgr    FilesystemManager
	logger   Logger
	copier   *Copier
	reporter *Reporter
	promoter *Promoter
}

func NewFilterService(fsmgr FilesystemManager, logger Logger) *FilterService {
	return &FilterService{
		fsmgr:    fsmgr,
		logger:   logger,
		copier:   NewCopier(fsmgr, logger),
		reporter: NewReporter(fsmgr),
		promoter: NewPromoter(fsmgr, logger),
	}
}

// Run executes one filter pass. On any error before promotion the original
// trees are untouched; the staging tree is discarded unless
// cfg.KeepStagingOnError is set. A PromotionError means the corpus may be
// inconsistent and is returned as-is for the caller to report loudly.
func (s *FilterService) Run(cfg FilterConfig) (*FilterResult, error) {
	xmlRoot := filepath.Join(cfg.CorpusRoot, "xml")
	stagingRoot := filepath.Join(cfg.CorpusRoot, "xml.staging")

	// Refuse to reuse leftovers from a previous incomplete run.
	if _, err := s.fsmgr.Stat(stagingRoot); err == nil {
		return nil, &StaleStagingError{Dir: stagingRoot}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking staging root: %w", err)
	}

	entries, err := s.parseManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("manifest parsed", "entries", len(entries))

	result := &FilterResult{
		Entries: len(entries),
		Reports: []LangReport{{Lang: cfg.SourceLang}, {Lang: cfg.TargetLang}},
	}

	for i := range result.Reports {
		lang := result.Reports[i].Lang
		stats, err := s.reporter.Measure(filepath.Join(xmlRoot, lang))
		if err != nil {
			// Reporting is observational and never blocks the filter.
			s.logger.Warn("pre-filter measurement failed", "lang", lang, "error", err)
			continue
		}
		result.Reports[i].Before = stats
	}

	paths := make([]string, 0, 2*len(entries))
	for _, e := range entries {
		paths = append(paths, e.Source, e.Target)
	}

	copied, err := s.copier.CopyReferenced(xmlRoot, stagingRoot, paths)
	if err != nil {
		s.cleanupStaging(stagingRoot, cfg.KeepStagingOnError)
		return nil, err
	}
	result.Copied = copied

	// An empty staging tree would promote into an empty corpus. A manifest
	// that selects nothing is a setup mistake, not a filter outcome.
	if copied == 0 {
		s.cleanupStaging(stagingRoot, cfg.KeepStagingOnError)
		return nil, fmt.Errorf("manifest %s selected no documents, refusing to promote", cfg.ManifestPath)
	}

	for i := range result.Reports {
		lang := result.Reports[i].Lang
		stats, err := s.reporter.Measure(filepath.Join(stagingRoot, lang))
		if err != nil {
			s.logger.Warn("post-filter measurement failed", "lang", lang, "error", err)
			continue
		}
		result.Reports[i].After = stats
	}

	// Verify both staged subtrees exist before the first destructive rename.
	// A manifest whose paths never touch one of the configured languages
	// must not cost the corpus that subtree.
	for _, lang := range []string{cfg.SourceLang, cfg.TargetLang} {
		if _, err := s.fsmgr.Stat(filepath.Join(stagingRoot, lang)); err != nil {
			s.cleanupStaging(stagingRoot, cfg.KeepStagingOnError)
			return nil, fmt.Errorf("manifest selected no documents under %s, refusing to promote: %w", lang, err)
		}
	}

	for _, lang := range []string{cfg.SourceLang, cfg.TargetLang} {
		if err := s.promoter.Promote(filepath.Join(stagingRoot, lang), filepath.Join(xmlRoot, lang)); err != nil {
			// The staging tree may hold the only surviving copy; never
			// clean it up here.
			s.logger.Error("promotion failed, corpus may be inconsistent", "lang", lang, "error", err)
			return nil, err
		}
	}

	// Both subtrees moved out; drop the empty staging shell.
	if err := s.fsmgr.RemoveAll(stagingRoot); err != nil {
		s.logger.Warn("removing empty staging root failed", "dir", stagingRoot, "error", err)
	}

	s.logger.Info("filter complete", "entries", result.Entries, "copied", result.Copied)
	return result, nil
}

func (s *FilterService) parseManifest(path string) ([]Entry, error) {
	f, err := s.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	entries, err := ParseManifest(f)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *FilterService) cleanupStaging(stagingRoot string, keep bool) {
	if keep {
		s.logger.Warn("staging tree kept for inspection", "dir", stagingRoot)
		return
	}
	if err := s.fsmgr.RemoveAll(stagingRoot); err != nil {
		s.logger.Warn("removing staging tree failed", "dir", stagingRoot, "error", err)
	}
}
