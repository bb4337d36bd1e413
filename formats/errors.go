package formats

import (
	"bytes"
	"fmt"
)

// ParseError reports a document that is malformed or doesn't match the
// store's shape.
type ParseError struct {
	// Format is the name of the format being read.
	Format string
	// Path is the dotted key path of the offending entry, if known.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Format, e.Line, e.Column, msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Format, e.Line, msg)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Format, msg)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(src []byte, offset int) (int, int) {
	if offset < 0 || offset > len(src) {
		return 0, 0
	}
	before := src[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(before, '\n')
	return line, col
}
