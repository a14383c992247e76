package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownScenario means the requested id is not in the registry.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrDataUnavailable means a scenario table is missing or unreadable.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSchemaMismatch means a table lacks a required column.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMalformedRecord means a row holds a value that cannot be used.
	ErrMalformedRecord = errors.New("malformed record")
)

// SchemaError reports the required columns a table is missing.
type SchemaError struct {
	Table   TableName
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: table %s missing columns [%s]", ErrSchemaMismatch, e.Table, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// RecordError pinpoints a rejected cell. Line is the 1-based line number in
// the source file (the header is line 1).
type RecordError struct {
	Table  TableName
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RecordError) Error() string {
	msg := fmt.Sprintf("%s: table %s line %d", ErrMalformedRecord, e.Table, e.Line)
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q value %q", e.Column, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}

// ErrorKind classifies err into a stable, machine-readable label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnknownScenario):
		return "unknown_scenario"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	default:
		return "internal"
	}
}
