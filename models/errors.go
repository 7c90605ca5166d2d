package models

import "fmt"

// NotFoundError is returned when the input file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError is returned for malformed delimited content. Line is 1-based; 0 when unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError is returned when a required column is absent.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: required column %q is missing", e.Source, e.Column)
}

// EmptyDataError signals that no valid record was counted. It is not fatal:
// it accompanies an empty report.
type EmptyDataError struct {
	Source  string
	Skipped int
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("no valid records in %s (%d skipped)", e.Source, e.Skipped)
}
