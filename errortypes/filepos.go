// Package errortypes defines the errors reported while parsing, compiling and
// configuring views.
package errortypes

import (
	"errors"
	"fmt"
)

// ErrFilePos extends the error interface to add details on the file position where the error occurred.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// ParseError reports explicit but invalid template input, such as a malformed
// tag argument.  Templates that simply omit optional arguments never produce
// one.
type ParseError struct {
	file string
	line int
	col  int
	msg  string
}

var _ ErrFilePos = &ParseError{}

// NewParseErrorf creates a ParseError at the given position.
func NewParseErrorf(file string, line, col int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		file: file,
		line: line,
		col:  col,
		msg:  fmt.Sprintf(format, args...),
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template %s:%d:%d: %s", e.file, e.line, e.col, e.msg)
}

// Message is the error text without position information.
func (e *ParseError) Message() string {
	return e.msg
}

func (e *ParseError) File() string {
	return e.file
}

func (e *ParseError) Line() int {
	return e.line
}

func (e *ParseError) Col() int {
	return e.col
}

// IsErrFilePos identifies whether or not the provided error, or any error it
// wraps, is of the ErrFilePos type.
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos converts the input error to an ErrFilePos if possible, or nil if not.
// If IsErrFilePos returns true, this will not return nil.
func ToErrFilePos(err error) ErrFilePos {
	if err == nil {
		return nil
	}
	var out ErrFilePos
	if errors.As(err, &out) {
		return out
	}
	return nil
}
