package delimited

import "fmt"

// ParseError reports malformed fixture content. Line is 1-based; Column is
// the 1-based field number when one applies, 0 otherwise.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s:%d: column %d: %s", e.Path, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// NotFoundError reports a missing fixture directory, or a load-order entry
// naming a table with no matching file.
type NotFoundError struct {
	// Path is the fixture directory.
	Path string

	// Table is the load-order entry with no file, or "" when the directory
	// itself is missing.
	Table string

	// Err is the underlying filesystem error, if any.
	Err error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: load order names table %s but no fixture file exists", e.Path, e.Table)
	}
	return fmt.Sprintf("fixture directory %s not found", e.Path)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}
