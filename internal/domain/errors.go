package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain-specific errors
type ErrorKind string

const (
	KindMalformedDeck    ErrorKind = "malformed_deck"
	KindRender           ErrorKind = "render"
	KindCompletion       ErrorKind = "completion"
	KindGeneratorMissing ErrorKind = "generator_not_found"
	KindNoGenerators     ErrorKind = "no_generators_available"
	KindConfigValidation ErrorKind = "config_validation"
	KindIO               ErrorKind = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// Common error constructors
func MalformedDeckError(message string, err error) *DomainError {
	return NewError(KindMalformedDeck, message, err)
}

func RenderError(message string, err error) *DomainError {
	return NewError(KindRender, message, err)
}

func CompletionError(message string, err error) *DomainError {
	return NewError(KindCompletion, message, err)
}

func GeneratorNotFoundError(generatorID string) *DomainError {
	return NewError(KindGeneratorMissing, fmt.Sprintf("generator %q not found", generatorID), nil)
}

func NoGeneratorsError() *DomainError {
	return NewError(KindNoGenerators, "no generators available", nil)
}

func ConfigValidationError(message string, err error) *DomainError {
	return NewError(KindConfigValidation, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(KindIO, message, err)
}
