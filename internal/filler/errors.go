package filler

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is returned when the store has no template by the
// requested name.
var ErrTemplateNotFound = errors.New("template not found")

var errNoPages = errors.New("template has no pages")

// LoadError reports a template that could not be read or is not a usable
// PDF document.
type LoadError struct {
	Template string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load template %s: %v", e.Template, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SerializationError reports a failure while modifying or writing the
// filled document.
type SerializationError struct {
	Template string
	Stage    string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to %s for template %s: %v", e.Stage, e.Template, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
