// Package katerr defines the failure classes of a known-answer-test run.
//
// Every error that reaches a command maps to exactly one Class, which
// determines the process exit status.
package katerr

import (
	"errors"
	"fmt"
)

// Class is a stable failure category.
type Class string

const (
	// Format is a malformed or truncated vector line.
	Format Class = "FORMAT"
	// Unsupported is an unrecognised family or one gated by a missing
	// host capability. It is tallied, never fatal.
	Unsupported Class = "UNSUPPORTED"
	// Mismatch is a computed output that differs from the expected one.
	Mismatch Class = "MISMATCH"
	// Resource covers setup faults: unreadable input, device buffer
	// allocation, kernel compile or launch.
	Resource Class = "RESOURCE"
	// Internal is a logic fault such as an unreachable dispatch case.
	Internal Class = "INTERNAL"
)

// ExitCode returns the process exit status for this class.
func (c Class) ExitCode() int {
	switch c {
	case "":
		return 0
	case Mismatch:
		return 2
	default:
		return 1
	}
}

// Error is the classified error type.
type Error struct {
	Class   Class
	Line    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Line > 0 {
		return fmt.Sprintf("katerr: %s at line %d: %s", e.Class, e.Line, msg)
	}
	return fmt.Sprintf("katerr: %s: %s", e.Class, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error. line is 0 when not tied to input.
func New(class Class, line int, message string) *Error {
	return &Error{Class: class, Line: line, Message: message}
}

// Wrap creates a classified error around cause.
func Wrap(class Class, line int, message string, cause error) *Error {
	return &Error{Class: class, Line: line, Message: message, Cause: cause}
}

// ClassOf returns the class of err, Internal for unclassified errors and
// the empty class for nil.
func ClassOf(err error) Class {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return Internal
}

// Is reports whether err carries the given class.
func Is(err error, class Class) bool {
	return err != nil && ClassOf(err) == class
}
