package word

import (
	"errors"
	"fmt"
	"math/big"
)

// Class is a stable category for programmatic error handling.
//
// Callers should branch on Class/RuleID rather than matching error
// strings; Error() strings are for humans and may evolve.
type Class string

const (
	// ClassArithmetic covers rescale overflow, out-of-range narrowing and
	// negative values bound for unsigned destinations.
	ClassArithmetic Class = "Arithmetic"
	// ClassSemantic covers explicitly disallowed kind pairs.
	ClassSemantic Class = "Semantic"
)

// Error is the package's structured conversion error.
//
// RuleID is a stable identifier naming the violated rule. The value
// fields carry the offending operands:
//
//   - FB-CONV-001 (decimal overflow): Value, FromScale, ToScale
//   - FB-CONV-002 (negative into unsigned): Value, To
//   - FB-CONV-003 (out of destination range): Value, To
//   - FB-CONV-010 (invalid kind pair): From, To
type Error struct {
	Class  Class
	RuleID string

	Value     *big.Int
	From      Kind
	To        Kind
	FromScale uint8
	ToScale   uint8
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.RuleID {
	case "FB-CONV-001":
		return fmt.Sprintf("word: decimal rescale overflow: %s from scale %d to %d", e.Value, e.FromScale, e.ToScale)
	case "FB-CONV-002":
		return fmt.Sprintf("word: negative value %s cannot convert to %s", e.Value, e.To)
	case "FB-CONV-003":
		return fmt.Sprintf("word: value %s out of range for %s", e.Value, e.To)
	case "FB-CONV-010":
		return fmt.Sprintf("word: conversion %s to %s is not allowed", e.From, e.To)
	default:
		return fmt.Sprintf("word: conversion failed (%s)", e.RuleID)
	}
}

func decimalOverflow(v *big.Int, fromScale, toScale uint8) error {
	return &Error{Class: ClassArithmetic, RuleID: "FB-CONV-001", Value: new(big.Int).Set(v), FromScale: fromScale, ToScale: toScale}
}

func negativeValue(v *big.Int, to Kind) error {
	return &Error{Class: ClassArithmetic, RuleID: "FB-CONV-002", Value: new(big.Int).Set(v), To: to}
}

func outOfRange(v *big.Int, to Kind) error {
	return &Error{Class: ClassArithmetic, RuleID: "FB-CONV-003", Value: new(big.Int).Set(v), To: to}
}

func invalidConversion(from, to Kind) error {
	return &Error{Class: ClassSemantic, RuleID: "FB-CONV-010", From: from, To: to}
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
