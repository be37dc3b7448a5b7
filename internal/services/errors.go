package services

import (
	"fmt"
	"strings"
)

// ValidationError reports required request fields that were missing or empty.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// NotFoundError reports an unknown template together with the templates
// that do exist.
type NotFoundError struct {
	Template  string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Template)
}

// GenerationError wraps any failure after validation. Its cause is logged,
// never returned to clients.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate document: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
