package model

import (
	"database/sql"
	"time"
)

// Run is one recorded CLI run: which operation ran, with what parameters,
// and how it ended. FinishedAt is null while the run is in flight.
type Run struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "success" or "error"
}

// Word is one token of a subtitle document. WordID is the per-sentence
// token index (the second half of the original "s.w" id).
type Word struct {
	Lang       string
	DocumentID int64
	SentenceID int64
	WordID     int64
	Word       string
}

// Meta is one metadata key/value pair of a document.
type Meta struct {
	DocumentID int64
	Key        string
	Value      string
}

// TimeSpan is one subtitle display interval: the sentence/word positions and
// normalized timestamps where the span starts and ends.
type TimeSpan struct {
	Lang            string
	DocumentID      int64
	TimeID          int64
	StartSentenceID int64
	StartWordID     int64
	StartTime       string
	EndSentenceID   int64
	EndWordID       int64
	EndTime         string
}
