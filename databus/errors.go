package databus

import (
	"errors"
	"fmt"
)

// Class is a stable category for programmatic error handling.
//
// Callers should branch on Class/RuleID rather than matching error
// strings. Arithmetic and Semantic failures raised inside a conversion
// surface as *word.Error and keep that package's classes.
type Class string

const (
	// ClassStructural covers zero module addresses, empty lists where one
	// is required, unknown direction tags and malformed payloads.
	ClassStructural Class = "Structural"
	// ClassArithmetic covers the splitter's numerator-sum mismatch.
	ClassArithmetic Class = "Arithmetic"
	// ClassShape covers response windows that exceed one value or the
	// response bounds.
	ClassShape Class = "Shape"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier naming the violated rule. Two rules
// carry operands:
//
//   - FB-SPLIT-004 (numerator mismatch): Sum, Denominator
//   - FB-READ-002/003 (window violations): Start, End, Limit
type Error struct {
	Class   Class
	RuleID  string
	Message string

	Sum         uint64
	Denominator uint64
	Start       int
	End         int
	Limit       int

	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(class Class, ruleID, msg string) *Error {
	return &Error{Class: class, RuleID: ruleID, Message: msg}
}

func structural(ruleID, format string, args ...any) *Error {
	return newError(ClassStructural, ruleID, "databus: "+fmt.Sprintf(format, args...))
}

// IsClass reports whether err is (or wraps) a *Error with the given Class.
func IsClass(err error, class Class) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Class == class
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
