package service

import "fmt"

// ValidationError reports a request parameter outside its allowed range.
// Validation runs at the request boundary, before any generation work.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func rangeError(field string, got, min, max int) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%d out of range [%d, %d]", got, min, max),
	}
}

func rangeErrorFloat(field string, got, min, max float64) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%g out of range [%g, %g]", got, min, max),
	}
}

// ResourceLimitError reports a request rejected by the cost guard before any
// generation was attempted.
type ResourceLimitError struct {
	Message string
}

func (e *ResourceLimitError) Error() string {
	return e.Message
}
