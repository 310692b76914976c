package app

// RunRecord tracks a CLI run that may be recorded in the database.
// Records are created in memory with ID=0. Only corpus-mutating commands
// persist them (giving them an auto-increment ID from the database).
type RunRecord struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewRunRecord creates a new in-memory run record.
func NewRunRecord(operation, parameters string) *RunRecord {
	return &RunRecord{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this run has been saved to the database.
func (r *RunRecord) Persisted() bool {
	return r.ID != 0
}
