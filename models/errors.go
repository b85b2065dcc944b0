package models

import (
	"errors"
	"fmt"
)

// ErrUnknownState is wrapped into LocalityNotFound when the state itself has
// no coverage.
var ErrUnknownState = errors.New("unknown state")

// InitError is fatal: the statistics or classifier source is missing or corrupt.
type InitError struct {
	Source string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Source, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// LocalityNotFound reports a data-coverage gap. The caller may pick another
// locality; retrying the same one will not help.
type LocalityNotFound struct {
	State    string
	Locality string
	Err      error
}

func (e *LocalityNotFound) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no pricing data for %q in %q: %v", e.Locality, e.State, e.Err)
	}
	return fmt.Sprintf("no pricing data for %q in %q", e.Locality, e.State)
}

func (e *LocalityNotFound) Unwrap() error { return e.Err }

// InvalidStatistics signals upstream data corruption in a locality record.
type InvalidStatistics struct {
	Locality string
	Reason   string
}

func (e *InvalidStatistics) Error() string {
	return fmt.Sprintf("invalid statistics for %q: %s", e.Locality, e.Reason)
}

// ScoringFailed wraps any classifier failure, returned verbatim.
type ScoringFailed struct {
	Cause error
}

func (e *ScoringFailed) Error() string {
	return fmt.Sprintf("scoring failed: %v", e.Cause)
}

func (e *ScoringFailed) Unwrap() error { return e.Cause }

// InvalidListing rejects user input before any lookup happens.
type InvalidListing struct {
	Field  string
	Reason string
}

func (e *InvalidListing) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrorKind returns a stable machine-readable name for a scoring error.
func ErrorKind(err error) string {
	var (
		initErr  *InitError
		notFound *LocalityNotFound
		badStats *InvalidStatistics
		failed   *ScoringFailed
		badInput *InvalidListing
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, ErrUnknownState):
		return "locality_not_found"
	case errors.As(err, &badInput):
		return "invalid_listing"
	case errors.As(err, &badStats):
		return "invalid_statistics"
	case errors.As(err, &failed):
		return "scoring_failed"
	case errors.As(err, &initErr):
		return "init_error"
	default:
		return "internal"
	}
}
