package surrealcrud

import (
	"errors"
	"fmt"

	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/store"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

var (
	// ErrMissingID is returned when a create succeeded without returning
	// the id of the new row.
	ErrMissingID = errors.New("insert did not return an ID")

	// ErrReadOnly is returned for writes to entities without ownership
	// paths.
	ErrReadOnly = errors.New("entity is read-only")
)

// MissingRecordError reports a row that does not exist or that the
// requesting user does not own. The two cases are indistinguishable by
// design of the queries.
type MissingRecordError struct {
	ID models.ID
}

func (e *MissingRecordError) Error() string {
	return "missing record: " + e.ID.String()
}

// ValidationError carries the report of a graph that failed validation.
// Nothing was written.
type ValidationError struct {
	Report *validation.Report
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Report.String()
}

// DocumentError reports a request that does not fit the schema: an unknown
// table or field, or a malformed id.
type DocumentError struct {
	Table  string
	Field  string
	Reason string
}

func (e *DocumentError) Error() string {
	msg := e.Table
	if e.Field != "" {
		msg += "." + e.Field
	}
	return msg + ": " + e.Reason
}

// DatabaseError wraps a failure reported by the store.
type DatabaseError struct {
	Op    string
	Table string
	Err   error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// SerdeError wraps a failed conversion between typed entities and
// documents.
type SerdeError struct {
	Err error
}

func (e *SerdeError) Error() string {
	return "serde: " + e.Err.Error()
}

func (e *SerdeError) Unwrap() error { return e.Err }

// IsClientError reports whether err describes a request the caller can
// correct, as opposed to a server fault.
func IsClientError(err error) bool {
	var (
		missing    *MissingRecordError
		invalid    *ValidationError
		badRequest *DocumentError
	)
	return errors.As(err, &missing) ||
		errors.As(err, &invalid) ||
		errors.As(err, &badRequest) ||
		errors.Is(err, ErrReadOnly) ||
		errors.Is(err, store.ErrReadOnly)
}
