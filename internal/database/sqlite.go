package database

import (
	"database/sql"
	"fmt"
	"time"

	"subprep/internal/database/migrations"
	"subprep/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase holds the corpus export tables (words, meta, time_spans)
// and the tool's run history.
type SQLiteDatabase struct {
	db   *sql.DB
	tx   *sql.Tx // open export batch, nil between batches
	path string
}

// NewSQLiteDatabase opens a SQLite database and migrates it to the latest
// schema. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw configured handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A ":memory:" database exists per connection, so the pool must never
	// grow past one. The CLI is single-writer anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Run history operations

// CreateRun records the start of a CLI run and returns its ID.
func (s *SQLiteDatabase) CreateRun(operation, parameters string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (operation, parameters, started_at) VALUES (?, ?, ?)`,
		operation, parameters, startedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("creating run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// FinishRun records the end of a run with its final status.
func (s *SQLiteDatabase) FinishRun(id int64, status string, finishedAt time.Time) error {
	// An open export batch here means the run aborted mid-document;
	// discard it rather than commit a partial document.
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		finishedAt, status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, parameters, started_at, finished_at, status
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.Operation, &r.Parameters, &r.StartedAt, &r.FinishedAt, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Export row operations
//
// Inserts use INSERT OR IGNORE so re-exporting a document is idempotent,
// matching the insert-if-absent behavior the corpus loader always had.
// Rows accumulate in a transaction until Flush commits them.

func (s *SQLiteDatabase) WriteWord(w model.Word) error {
	tx, err := s.batch()
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT OR IGNORE INTO words (lang, document_id, sentence_id, word_id, word)
		 VALUES (?, ?, ?, ?, ?)`,
		w.Lang, w.DocumentID, w.SentenceID, w.WordID, w.Word,
	)
	if err != nil {
		return fmt.Errorf("inserting word: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) WriteMeta(m model.Meta) error {
	tx, err := s.batch()
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT OR IGNORE INTO meta (document_id, key, value) VALUES (?, ?, ?)`,
		m.DocumentID, m.Key, m.Value,
	)
	if err != nil {
		return fmt.Errorf("inserting meta: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) WriteTimeSpan(t model.TimeSpan) error {
	tx, err := s.batch()
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT OR IGNORE INTO time_spans
		 (lang, document_id, time_id, start_sentence_id, start_word_id, start_time,
		  end_sentence_id, end_word_id, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Lang, t.DocumentID, t.TimeID, t.StartSentenceID, t.StartWordID, t.StartTime,
		t.EndSentenceID, t.EndWordID, t.EndTime,
	)
	if err != nil {
		return fmt.Errorf("inserting time span: %w", err)
	}
	return nil
}

// Flush commits the open export batch, if any.
func (s *SQLiteDatabase) Flush() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("committing export batch: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in the named export table.
// The table name is validated against the known schema, never interpolated
// from input.
func (s *SQLiteDatabase) CountRows(table string) (int64, error) {
	switch table {
	case "words", "meta", "time_spans", "runs":
	default:
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLiteDatabase) batch() (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting export batch: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Close flushes any open batch and closes the database.
func (s *SQLiteDatabase) Close() error {
	if s.tx != nil {
		// An open batch at close time means the run aborted mid-document;
		// roll it back rather than committing a partial document.
		s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}
