package corpus

import "fmt"

// MalformedManifestError reports a manifest line that carries the alignment
// marker but does not match the expected field layout. The filter aborts on
// the first malformed line so a drifting manifest format cannot silently
// misextract paths.
type MalformedManifestError struct {
	Line   int
	Reason string
}

func (e *MalformedManifestError) Error() string {
	return fmt.Sprintf("malformed manifest line %d: %s", e.Line, e.Reason)
}

// MissingSourceFileError reports a manifest-referenced document that does not
// exist in the corpus tree. This indicates a manifest/tree mismatch and aborts
// the run before anything destructive happens.
type MissingSourceFileError struct {
	Path string
}

func (e *MissingSourceFileError) Error() string {
	return fmt.Sprintf("manifest references missing document: %s", e.Path)
}

// StaleStagingError reports a staging root left behind by a previous
// incomplete run. The filter refuses to start until the operator inspects
// and removes it.
type StaleStagingError struct {
	Dir string
}

func (e *StaleStagingError) Error() string {
	return fmt.Sprintf("stale staging tree at %s: inspect and remove it before re-running", e.Dir)
}

// PromotionError reports a failure while swapping a staging subtree into the
// original subtree's place. Depending on Step the corpus may be in an
// inconsistent state; the error message names the paths an operator needs
// for manual recovery.
type PromotionError struct {
	Step string // "set-aside", "swap-in", "discard-old"
	Path string
	Err  error
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("promotion failed at %s (%s): %v", e.Step, e.Path, e.Err)
}

func (e *PromotionError) Unwrap() error { return e.Err }
