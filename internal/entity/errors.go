package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Configuration / input errors, fatal to the call and never retried
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidLineItem = errors.New("invalid bill line item")
	ErrEmptyDocument   = errors.New("document contains no text")

	// Backend errors
	ErrModelUnavailable = errors.New("model backend unavailable")
	ErrGenerationFailed = errors.New("answer generation failed")
	ErrTimeout          = errors.New("operation exceeded time budget")

	// Lookup errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrPolicyNotFound   = errors.New("policy not found")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// GenerationError is returned when answer synthesis fails after
// retrieval succeeded. Sources carry the chunks that were retrieved so
// partial success stays reportable.
type GenerationError struct {
	Err     error
	Sources []Source
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrGenerationFailed, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return ErrGenerationFailed
}
