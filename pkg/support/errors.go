package support

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/field"
)

// Cardinality failures, wrapped by *CardinalityError.
var (
	ErrNoResult       = errors.New("no result found")
	ErrTooManyResults = errors.New("more than one result found")
)

// CardinalityError reports a query that did not yield exactly one row.
type CardinalityError struct {
	Query string
	Err   error
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%v in query %q", e.Err, e.Query)
}

func (e *CardinalityError) Unwrap() error { return e.Err }

// BindingError reports an argument that could not be bound.
type BindingError struct {
	// Position is the 1-based parameter position.
	Position int
	Kind     field.DataKind
	Err      error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("failed to bind parameter %d as %s: %v", e.Position, e.Kind, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// DriverError reports a failure surfaced by the driver.
type DriverError struct {
	// Op is the failing step: prepare, exec, query, next, scan, close or
	// more_results.
	Op    string
	Query string
	Err   error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s failed for %q: %v", e.Op, e.Query, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// MetadataError reports result metadata that is missing or unusable: key
// columns that cannot be resolved, or a result shape a mapper rejects.
type MetadataError struct {
	Query  string
	Column string
	Err    error
}

func (e *MetadataError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("result metadata unavailable for column %q: %v", e.Column, e.Err)
	case e.Query != "":
		return fmt.Sprintf("result metadata unavailable for %q: %v", e.Query, e.Err)
	default:
		return fmt.Sprintf("result metadata unavailable: %v", e.Err)
	}
}

func (e *MetadataError) Unwrap() error { return e.Err }

// IsNoResult reports whether err is a no-result cardinality failure.
func IsNoResult(err error) bool { return errors.Is(err, ErrNoResult) }

// IsTooManyResults reports whether err is a too-many-results cardinality failure.
func IsTooManyResults(err error) bool { return errors.Is(err, ErrTooManyResults) }
