package app

import (
	"fmt"
	"os"
	"time"

	"subprep/internal/config"
	"subprep/internal/corpus"
	"subprep/internal/database"
	"subprep/internal/export"
	"subprep/internal/extract"
	"subprep/internal/fs"
	"subprep/internal/model"
)

// App is the application layer between the CLI and the corpus services.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the database and log-file lifecycle on Close.
type App struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	fsmgr   corpus.FilesystemManager
	logger  corpus.Logger
	clock   corpus.Clock
	run     *RunRecord
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Filter", "ExportDB").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager()

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:     cfg,
		db:      db,
		fsmgr:   fsmgr,
		logger:  &slogAdapter{l: logger},
		clock:   corpus.RealClock{},
		run:     NewRunRecord(operation, ""),
		logFile: logFile,
	}, nil
}

// persistRun saves the run record to the database, giving it an
// auto-increment ID. Only corpus-mutating commands call this.
func (a *App) persistRun(parameters string) error {
	if a.run.Persisted() {
		return nil
	}
	a.run.Parameters = parameters
	id, err := a.db.CreateRun(a.run.Operation, parameters, a.clock.Now())
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	a.run.ID = id
	return nil
}

// FilterOptions are per-invocation overrides of the corpus config.
// Empty fields fall back to the configured values.
type FilterOptions struct {
	CorpusRoot   string
	ManifestPath string
	SourceLang   string
	TargetLang   string
	KeepStaging  bool
}

// Filter runs the manifest-driven unmatched-pair filter using the corpus
// section of the config, with any non-empty opts fields taking precedence.
func (a *App) Filter(opts FilterOptions) (*corpus.FilterResult, error) {
	c := a.cfg.Corpus
	if opts.CorpusRoot != "" {
		c.Root = opts.CorpusRoot
	}
	if opts.ManifestPath != "" {
		c.ManifestPath = opts.ManifestPath
	}
	if opts.SourceLang != "" {
		c.SourceLang = opts.SourceLang
	}
	if opts.TargetLang != "" {
		c.TargetLang = opts.TargetLang
	}
	if opts.KeepStaging {
		c.KeepStagingOnError = true
	}
	if c.Root == "" || c.ManifestPath == "" || c.SourceLang == "" || c.TargetLang == "" {
		return nil, fmt.Errorf("corpus config incomplete: root, manifest_path, source_lang and target_lang are required")
	}

	params := fmt.Sprintf("manifest=%s langs=%s,%s", c.ManifestPath, c.SourceLang, c.TargetLang)
	if err := a.persistRun(params); err != nil {
		return nil, err
	}

	svc := corpus.NewFilterService(a.fsmgr, a.logger)
	result, err := svc.Run(corpus.FilterConfig{
		CorpusRoot:         c.Root,
		ManifestPath:       c.ManifestPath,
		SourceLang:         c.SourceLang,
		TargetLang:         c.TargetLang,
		KeepStagingOnError: c.KeepStagingOnError,
	})
	if err != nil {
		a.run.Status = "error"
		return nil, err
	}
	return result, nil
}

// Extract unpacks every corpus archive under srcDir into outDir.
// Returns the number of archives extracted.
func (a *App) Extract(srcDir, outDir string) (int, error) {
	if err := a.persistRun(fmt.Sprintf("src=%s out=%s", srcDir, outDir)); err != nil {
		return 0, err
	}

	ex := extract.NewExtractor(a.fsmgr, a.logger)
	count, err := ex.ExtractAll(srcDir, outDir)
	if err != nil {
		a.run.Status = "error"
		return count, err
	}
	return count, nil
}

// ExportDB loads every document under srcDir into the database for the
// given language. Returns the number of documents exported.
func (a *App) ExportDB(lang, srcDir string) (int, error) {
	if err := a.persistRun(fmt.Sprintf("lang=%s src=%s", lang, srcDir)); err != nil {
		return 0, err
	}

	ex := export.NewExporter(a.fsmgr, a.db, a.logger, a.cfg.Export.BatchSize)
	count, err := ex.ExportTree(lang, srcDir)
	if err != nil {
		a.run.Status = "error"
		return count, err
	}
	return count, nil
}

// History returns the most recent recorded runs.
func (a *App) History(limit int) ([]*model.Run, error) {
	return a.db.ListRuns(limit)
}

// Close finalizes the run record, if persisted, and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.run.Persisted() {
		if err := a.db.FinishRun(a.run.ID, a.run.Status, a.clock.Now()); err != nil {
			firstErr = fmt.Errorf("finishing run record: %w", err)
		}
	}

	if err := a.db.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
