package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a document failed to deserialize
type ErrorKind string

const (
	KindMalformedXML ErrorKind = "malformed_xml"
	KindMissingField ErrorKind = "missing_field"
	KindTypeMismatch ErrorKind = "type_mismatch"
)

// Sentinel errors matched by errors.Is against a *ParseError of the same kind
var (
	ErrMalformedXML = errors.New("malformed XML")
	ErrMissingField = errors.New("missing required field")
	ErrTypeMismatch = errors.New("type mismatch")
)

// ParseError represents a deserialization failure with entity context
type ParseError struct {
	Kind    ErrorKind
	Entity  string
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	target := e.Entity
	if e.Field != "" {
		target = e.Entity + "." + e.Field
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Kind, target, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, target, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMalformedXML:
		return e.Kind == KindMalformedXML
	case ErrMissingField:
		return e.Kind == KindMissingField
	case ErrTypeMismatch:
		return e.Kind == KindTypeMismatch
	}
	return false
}

// NewParseError creates a new parse error
func NewParseError(kind ErrorKind, entity, field, message string, cause error) *ParseError {
	return &ParseError{
		Kind:    kind,
		Entity:  entity,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// IsKind reports whether err wraps a ParseError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind == kind
	}
	return false
}

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}
