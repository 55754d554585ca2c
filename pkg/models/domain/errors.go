package domain

import (
	"fmt"
	"time"
)

// DataInsufficientError reports a category whose sales history is too short
// for the requested computation.
type DataInsufficientError struct {
	Category string
	Records  int
	Needed   int
}

func (e *DataInsufficientError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("sales history: %d records, need at least %d", e.Records, e.Needed)
	}
	return fmt.Sprintf("category %q: %d sales records, need at least %d", e.Category, e.Records, e.Needed)
}

// InvalidDataError reports malformed sales history, e.g. a non-positive price.
type InvalidDataError struct {
	Category string
	Reason   string
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("category %q: invalid sales data: %s", e.Category, e.Reason)
}

// InvalidParameterError reports a caller-supplied parameter outside its
// documented range.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Reason)
}

// NumericInstabilityError reports a model fit that produced NaN or Inf.
type NumericInstabilityError struct {
	Category string
	Reason   string
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("category %q: numeric instability: %s", e.Category, e.Reason)
}

// OptimizationTimeoutError reports an optimization stage that exceeded its
// deadline. Trace holds the objective history accumulated before the cutoff,
// so callers can still inspect how far the search got.
type OptimizationTimeoutError struct {
	Stage   RunStage
	Elapsed time.Duration
	Trace   []TracePoint
}

func (e *OptimizationTimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded its deadline after %s (%d trace points)", e.Stage, e.Elapsed, len(e.Trace))
}
